package instanceutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ruteri/holo-auth-client/api/clients"
	"github.com/ruteri/holo-auth-client/interfaces"
)

// LegacyChallenge confirms the admin email of a host still on hpos-config
// v1. It accepts configurations of any version.
type LegacyChallenge struct {
	Identity IdentityLoader
	Overlay  interfaces.OverlayIdentitySource
	Client   *clients.ChallengeClient
	Log      *slog.Logger
}

// Run loads the host identity, reads the ZeroTier address and asks the
// auth server to confirm the admin email.
func (l *LegacyChallenge) Run(ctx context.Context) error {
	cfg, key, err := l.Identity.LoadIdentity()
	if err != nil {
		return fmt.Errorf("could not load host identity: %w", err)
	}
	identity, err := l.Overlay.ReadIdentity()
	if err != nil {
		return fmt.Errorf("could not read zerotier identity: %w", err)
	}

	if cfg.SupportsRegistrationAuthority() {
		l.Log.Warn("Sending legacy challenge for a configuration that supports registration", slog.String("version", cfg.Version().String()))
	}
	return l.Client.Confirm(ctx, cfg.AdminEmail(), key, identity.Address())
}
