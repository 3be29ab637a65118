package interfaces

import (
	"context"

	"github.com/ruteri/holo-auth-client/cryptoutils"
)

type AgentPubKey = cryptoutils.AgentPubKey

// ConfigVersion identifies the hpos-config format of a configuration bundle.
type ConfigVersion int

const (
	ConfigV1 ConfigVersion = 1
	ConfigV2 ConfigVersion = 2
)

func (v ConfigVersion) String() string {
	switch v {
	case ConfigV1:
		return "v1"
	case ConfigV2:
		return "v2"
	default:
		return "unknown"
	}
}

// Configuration is the read-only view of the device configuration bundle
// consumed by the authority clients.
type Configuration interface {
	Version() ConfigVersion
	AdminEmail() string
	// RegistrationCode is empty for configurations that do not carry one.
	RegistrationCode() string
	// SupportsRegistrationAuthority reports whether the configuration can be
	// used for membrane-proof registration and overlay registration.
	SupportsRegistrationAuthority() bool
}

// RegistrationAuthority obtains the membrane proof for the host.
type RegistrationAuthority interface {
	Register(ctx context.Context, cfg Configuration, key AgentPubKey) error
}

// OverlayAuthority performs a single overlay-network registration attempt.
type OverlayAuthority interface {
	Attempt(ctx context.Context, cfg Configuration, key AgentPubKey) error
}

// Notifier delivers failure reports to the host administrator.
type Notifier interface {
	NotifyFailure(ctx context.Context, email string, data string) error
}

// OverlayIdentity is the locally-resident overlay network identity.
type OverlayIdentity interface {
	Address() string
	Sign(message []byte) ([]byte, error)
}

// OverlayIdentitySource reads the current overlay identity. Implementations
// must not cache: the identity may be regenerated between attempts.
type OverlayIdentitySource interface {
	ReadIdentity() (OverlayIdentity, error)
}
