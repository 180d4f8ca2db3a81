// Package source loads guideline packs from files and watches them for
// changes.
//
// A FileSource reads a single pack file or every *.json, *.yaml and *.yml
// file under a directory. Each file yields an Entry carrying the parsed
// pack and its lint result, or the error that stopped it from loading, so
// callers can report broken files without losing the good ones.
//
// A Watcher wraps fsnotify with debouncing. Editors often write a file in
// several steps; the callback fires once after the burst settles:
//
//	w, _ := source.NewWatcher(&source.WatcherConfig{Path: dir}, logger)
//	go w.Watch(ctx, func(ctx context.Context) error {
//	    entries, err := src.Load(ctx)
//	    ...
//	})
package source
