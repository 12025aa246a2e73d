package config

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// ResolvePassword returns the controller password to authenticate with:
// the plaintext value if configured directly, or — if only a bcrypt
// hash is configured — a hidden-input prompt that must match the hash
// before the plaintext is handed back for use in the basic-auth header.
// The hash is produced once, offline, by routectl-hashpw, and verified
// here.
func (cfg *Config) ResolvePassword() (string, error) {
	if cfg.Controller.Password != "" {
		return cfg.Controller.Password, nil
	}
	if cfg.Controller.PasswordHash == "" {
		return "", nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("controller.password_hash is set but stdin is not a terminal to prompt for the plaintext")
	}

	fmt.Fprint(os.Stderr, "Controller password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading controller password: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cfg.Controller.PasswordHash), pw); err != nil {
		return "", fmt.Errorf("controller password does not match configured hash: %w", err)
	}
	return string(pw), nil
}
