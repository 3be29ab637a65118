package instanceutils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ruteri/holo-auth-client/hposconfig"
	"github.com/ruteri/holo-auth-client/interfaces"
	"github.com/ruteri/holo-auth-client/storage"
)

// KeyConsistencyValidator checks that the key already used by the local
// conductor is the one derived from the device configuration.
type KeyConsistencyValidator struct {
	// DevNetwork bypasses the check
	DevNetwork bool

	StoredKey *storage.KeyFile

	// ConfigGlob selects the bundle to derive from, ConfigPath is the
	// fallback when it matches nothing.
	ConfigGlob string
	ConfigPath string
	Passphrase string

	Log *slog.Logger
}

var _ Validator = (*KeyConsistencyValidator)(nil)

// NewKeyConsistencyValidator builds a validator from the resolved settings.
func NewKeyConsistencyValidator(s *Settings, log *slog.Logger) *KeyConsistencyValidator {
	return &KeyConsistencyValidator{
		DevNetwork: s.IsDevNetwork(),
		StoredKey:  &storage.KeyFile{Path: s.PubkeyPath},
		ConfigGlob: s.ValidationConfigGlob,
		ConfigPath: s.HposConfigPath,
		Passphrase: s.DeviceBundlePassword,
		Log:        log,
	}
}

// Validate returns nil on the development network, when no usable stored key
// exists, or when the stored key equals the key derived from the device
// bundle. It returns ErrInitialization on a mismatch or when the bundle
// cannot be loaded or unlocked.
func (v *KeyConsistencyValidator) Validate(ctx context.Context) error {
	if v.DevNetwork {
		v.Log.Info("Development network, skipping key validation")
		return nil
	}

	stored, err := v.StoredKey.Load()
	if errors.Is(err, storage.ErrKeyNotFound) {
		v.Log.Info("No stored holochain key, skipping key validation")
		return nil
	} else if err != nil {
		v.Log.Warn("Could not load stored holochain key, skipping key validation", "err", err)
		return nil
	}

	cfg, path, err := v.loadConfig()
	if err != nil {
		return fmt.Errorf("%w: %w", interfaces.ErrInitialization, err)
	}
	derived, err := cfg.HoloportPublicKey(v.Passphrase)
	if err != nil {
		return fmt.Errorf("%w: %w", interfaces.ErrInitialization, err)
	}

	if !derived.Equal(stored) {
		v.Log.Error("Holoport key mismatch",
			slog.String("stored", stored.Encoded()),
			slog.String("derived", derived.Encoded()),
			slog.String("config", path))
		return fmt.Errorf("%w: Keys on holoport does not match. Please reset your holoport", interfaces.ErrInitialization)
	}

	v.Log.Debug("Holoport key validated", slog.String("key", stored.Encoded()))
	return nil
}

func (v *KeyConsistencyValidator) loadConfig() (*hposconfig.Config, string, error) {
	if v.ConfigGlob != "" {
		cfg, path, err := hposconfig.LoadGlob(v.ConfigGlob)
		if !errors.Is(err, hposconfig.ErrNoConfig) {
			return cfg, path, err
		}
	}
	if v.ConfigPath == "" {
		return nil, "", hposconfig.ErrNoConfig
	}
	cfg, err := hposconfig.Load(v.ConfigPath)
	return cfg, v.ConfigPath, err
}
