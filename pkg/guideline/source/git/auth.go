package git

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"ustudiopd/eventlive/pkg/config"
)

// NewAuth returns the transport authentication for cfg. Type "none" (or
// empty) returns nil for public repositories.
func NewAuth(cfg *config.GitAuthConfig) (transport.AuthMethod, error) {
	if cfg == nil {
		return nil, errors.New("auth config cannot be nil")
	}

	switch cfg.Type {
	case "", "none":
		return nil, nil

	case "token":
		if cfg.Token == "" {
			return nil, errors.New("token auth requires non-empty token")
		}
		// Hosts ignore the username for token auth.
		return &http.BasicAuth{Username: "git", Password: cfg.Token}, nil

	case "ssh":
		if cfg.SSHKeyPath == "" {
			return nil, errors.New("ssh auth requires ssh_key_path")
		}
		if err := checkKeyFile(cfg.SSHKeyPath); err != nil {
			return nil, err
		}
		auth, err := ssh.NewPublicKeysFromFile("git", cfg.SSHKeyPath, cfg.SSHKeyPassphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to load SSH key: %w", err)
		}
		return auth, nil

	default:
		return nil, fmt.Errorf("unknown auth type: %s", cfg.Type)
	}
}

// checkKeyFile rejects missing keys and keys readable by group or others.
func checkKeyFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to access SSH key file: %w", err)
	}
	if mode := info.Mode().Perm(); mode&0o077 != 0 {
		return fmt.Errorf("SSH key file permissions too open (%o), should be 0600", mode)
	}
	return nil
}
