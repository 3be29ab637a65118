package instanceutils

import (
	"fmt"

	"github.com/ruteri/holo-auth-client/hposconfig"
	"github.com/ruteri/holo-auth-client/interfaces"
)

// ConfigIdentityLoader reads the hpos-config bundle at Path.
type ConfigIdentityLoader struct {
	Path       string
	Passphrase string
}

var _ IdentityLoader = (*ConfigIdentityLoader)(nil)

// LoadIdentity loads the bundle at Path and derives the host key with
// Passphrase.
func (l *ConfigIdentityLoader) LoadIdentity() (interfaces.Configuration, interfaces.AgentPubKey, error) {
	cfg, err := hposconfig.Load(l.Path)
	if err != nil {
		return nil, interfaces.AgentPubKey{}, err
	}
	key, err := cfg.HoloportPublicKey(l.Passphrase)
	if err != nil {
		return nil, interfaces.AgentPubKey{}, fmt.Errorf("could not derive holoport key from %s: %w", l.Path, err)
	}
	return cfg, key, nil
}
