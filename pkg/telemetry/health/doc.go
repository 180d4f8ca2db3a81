// Package health serves liveness, readiness and version endpoints for the
// long-running eventlive process.
//
// Readiness runs dependency checks registered by the host, typically one
// for the guideline store and one for the campaign source:
//
//	checker := health.New(3 * time.Second)
//	checker.Register("guideline_store", func(ctx context.Context) error {
//	    _, err := store.List(ctx, guidelines.Filter{Status: guideline.StatusPublished})
//	    return err
//	})
//	health.Mount(mux, checker, version, commit, buildTime)
//
// Checks run concurrently and each is bounded by the checker timeout.
package health
