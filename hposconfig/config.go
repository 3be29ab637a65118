// Package hposconfig loads the HPOS device configuration bundle.
//
// A bundle is a JSON document tagged by format version:
//
//	{"v1": {"seed": "...", "settings": {"admin": {"email": "..."}}}}
//	{"v2": {"device_bundle": "...", "registration_code": "...", "settings": {...}}}
//
// Consumers should not switch on the version themselves; the capability
// query SupportsRegistrationAuthority is the single predicate for which
// flows a bundle can drive.
package hposconfig

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ruteri/holo-auth-client/cryptoutils"
	"github.com/ruteri/holo-auth-client/interfaces"
)

var ErrNoConfig = errors.New("no configuration bundle found")

type Admin struct {
	Email     string `json:"email"`
	PublicKey string `json:"public_key,omitempty"`
}

type Settings struct {
	Admin Admin `json:"admin"`
}

// V1 is the legacy format carrying the raw device seed.
type V1 struct {
	Seed     string   `json:"seed"`
	Settings Settings `json:"settings"`
}

// V2 carries a passphrase-sealed device seed bundle and the registration code.
type V2 struct {
	DeviceBundle     string   `json:"device_bundle"`
	DerivationPath   string   `json:"derivation_path,omitempty"`
	RegistrationCode string   `json:"registration_code"`
	Settings         Settings `json:"settings"`
}

// Config is the versioned configuration record. Exactly one of V1 and V2 is set.
type Config struct {
	V1 *V1 `json:"v1,omitempty"`
	V2 *V2 `json:"v2,omitempty"`
}

var _ interfaces.Configuration = (*Config)(nil)

// Parse decodes and validates a configuration bundle.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("could not parse hpos config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses the configuration bundle at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read hpos config %s: %w", path, err)
	}
	return Parse(data)
}

// LoadGlob loads the first bundle (in lexical order) matching pattern.
// Returns ErrNoConfig if nothing matches.
func LoadGlob(pattern string) (*Config, string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, "", fmt.Errorf("invalid config glob %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, "", fmt.Errorf("%w: %s", ErrNoConfig, pattern)
	}
	sort.Strings(matches)
	cfg, err := Load(matches[0])
	return cfg, matches[0], err
}

// Validate checks that exactly one version is present and carries its key
// material and an admin email.
func (c *Config) Validate() error {
	switch {
	case c.V1 != nil && c.V2 != nil:
		return errors.New("hpos config must carry exactly one version, found v1 and v2")
	case c.V1 != nil:
		if c.V1.Seed == "" {
			return errors.New("hpos config v1: missing seed")
		}
	case c.V2 != nil:
		if c.V2.DeviceBundle == "" {
			return errors.New("hpos config v2: missing device_bundle")
		}
	default:
		return errors.New("hpos config must carry a v1 or v2 section")
	}
	if c.AdminEmail() == "" {
		return errors.New("hpos config: missing settings.admin.email")
	}
	return nil
}

// Version reports which section of the bundle is populated.
func (c *Config) Version() interfaces.ConfigVersion {
	if c.V2 != nil {
		return interfaces.ConfigV2
	}
	return interfaces.ConfigV1
}

// AdminEmail is the address failure reports are sent to.
func (c *Config) AdminEmail() string {
	if c.V2 != nil {
		return c.V2.Settings.Admin.Email
	}
	if c.V1 != nil {
		return c.V1.Settings.Admin.Email
	}
	return ""
}

// RegistrationCode is empty for v1 bundles.
func (c *Config) RegistrationCode() string {
	if c.V2 != nil {
		return c.V2.RegistrationCode
	}
	return ""
}

// SupportsRegistrationAuthority is true for v2 bundles only.
func (c *Config) SupportsRegistrationAuthority() bool {
	return c.Version() == interfaces.ConfigV2
}

// HoloportPublicKey derives the host identity key. V2 bundles are unsealed
// with passphrase; V1 bundles carry the seed in the clear and ignore it.
func (c *Config) HoloportPublicKey(passphrase string) (interfaces.AgentPubKey, error) {
	var seed []byte
	switch c.Version() {
	case interfaces.ConfigV2:
		var err error
		seed, err = cryptoutils.OpenSeedBundle(c.V2.DeviceBundle, passphrase)
		if err != nil {
			return interfaces.AgentPubKey{}, fmt.Errorf("could not unlock device bundle: %w", err)
		}
	default:
		var err error
		seed, err = base64.StdEncoding.DecodeString(c.V1.Seed)
		if err != nil {
			return interfaces.AgentPubKey{}, fmt.Errorf("could not decode v1 seed: %w", err)
		}
	}
	return cryptoutils.AgentPubKeyFromSeed(seed)
}

// NewV2 builds a V2 configuration sealing seed under passphrase.
func NewV2(seed []byte, passphrase, email, registrationCode string) (*Config, error) {
	bundle, err := cryptoutils.SealSeedBundle(seed, passphrase)
	if err != nil {
		return nil, err
	}
	return &Config{V2: &V2{
		DeviceBundle:     bundle,
		RegistrationCode: registrationCode,
		Settings:         Settings{Admin: Admin{Email: email}},
	}}, nil
}

// NewV1 builds a legacy V1 configuration.
func NewV1(seed []byte, email string) *Config {
	return &Config{V1: &V1{
		Seed:     base64.StdEncoding.EncodeToString(seed),
		Settings: Settings{Admin: Admin{Email: email}},
	}}
}
