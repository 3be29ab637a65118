package instanceutils

import (
	"context"

	"github.com/ruteri/holo-auth-client/interfaces"
)

// Validator gates onboarding on the host identity being consistent.
type Validator interface {
	Validate(ctx context.Context) error
}

// IdentityLoader loads the device configuration and derives the host identity
// key from it. Called once per run.
type IdentityLoader interface {
	LoadIdentity() (interfaces.Configuration, interfaces.AgentPubKey, error)
}
