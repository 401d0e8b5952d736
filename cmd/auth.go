package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/services"
	"github.com/desertthunder/songmatch/internal/shared"
)

// AuthCheck authenticates against every platform and reports the outcome per platform.
func (r *Runner) AuthCheck(ctx context.Context, cmd *cli.Command) error {
	failed := 0

	for _, p := range models.Platforms {
		svc, err := r.services.Get(p)
		if err != nil {
			r.writePlain("✗ %s: not configured\n", p.Label())
			failed++
			continue
		}

		r.logger.Debug("authenticating", "service", svc.Name())
		if err := svc.Authenticate(ctx); err != nil {
			r.writePlain("✗ %s: %v\n", svc.Name(), err)
			failed++
			continue
		}
		r.writePlain("✓ %s: authenticated\n", svc.Name())
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d platforms", shared.ErrAuthFailed, failed, len(models.Platforms))
	}
	return nil
}

// AppleToken signs a developer token from the configured key and prints it.
//
// The token can be pasted into credentials.apple_music.token on machines without the key.
func (r *Runner) AppleToken(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Credentials.AppleMusic
	if cfg.TeamID == "" || cfg.KeyID == "" || cfg.PrivateKeyPath == "" {
		return fmt.Errorf("%w: team_id, key_id and private_key_path are required", shared.ErrMissingCredentials)
	}

	signer, err := services.LoadDeveloperTokenSigner(cfg)
	if err != nil {
		return err
	}

	token, expires, err := signer.Sign()
	if err != nil {
		return err
	}

	r.logger.Info("signed developer token", "key_id", cfg.KeyID, "expires", expires)
	return r.writePlain("%s\n", token)
}
