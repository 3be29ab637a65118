package flags

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ruteri/holo-auth-client/instanceutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

// Applying a flag stores its environment value in the flag itself, so every
// run gets copies of the flags as declared.
var declaredFlags = cloneFlags(append(append([]cli.Flag{}, OnboardingFlags...), CommonFlags...))

func cloneFlag(f cli.Flag) cli.Flag {
	switch f := f.(type) {
	case *altsrc.StringFlag:
		c := *f.StringFlag
		return altsrc.NewStringFlag(&c)
	case *altsrc.BoolFlag:
		c := *f.BoolFlag
		return altsrc.NewBoolFlag(&c)
	case *altsrc.DurationFlag:
		c := *f.DurationFlag
		return altsrc.NewDurationFlag(&c)
	case *altsrc.Float64Flag:
		c := *f.Float64Flag
		return altsrc.NewFloat64Flag(&c)
	case *altsrc.IntFlag:
		c := *f.IntFlag
		return altsrc.NewIntFlag(&c)
	case *cli.StringFlag:
		c := *f
		return &c
	default:
		panic(fmt.Sprintf("unexpected flag type %T", f))
	}
}

func cloneFlags(flags []cli.Flag) []cli.Flag {
	out := make([]cli.Flag, 0, len(flags))
	for _, f := range flags {
		out = append(out, cloneFlag(f))
	}
	return out
}

// resolve runs an app wired like cmd/holo-auth and returns the settings
// resolved by the default action or by the validate subcommand.
func resolve(t *testing.T, args ...string) (*instanceutils.Settings, error) {
	t.Helper()
	settingsFlags := cloneFlags(declaredFlags)

	var resolved *instanceutils.Settings
	action := func(cCtx *cli.Context) error {
		s, err := ResolveSettings(cCtx)
		resolved = s
		return err
	}

	app := &cli.App{
		Name:   "holo-auth",
		Flags:  append([]cli.Flag{cloneFlag(ConfigFileFlag)}, settingsFlags...),
		Before: altsrc.InitInputSourceWithContext(settingsFlags, altsrc.NewYamlSourceFromFlagFunc(ConfigFileFlag.Name)),
		Action: action,
		Commands: []*cli.Command{
			{Name: "validate", Action: action},
		},
	}
	err := app.Run(append([]string{"holo-auth"}, args...))
	return resolved, err
}

func TestResolveSettings_Defaults(t *testing.T) {
	s, err := resolve(t, "--hpos-config-path", "/etc/hpos-config.json")
	require.NoError(t, err)

	assert.Equal(t, "/etc/hpos-config.json", s.HposConfigPath)
	assert.Equal(t, "", s.DeviceBundlePassword)
	assert.Equal(t, "https://auth-server.holo.host", s.AuthServerURL)
	assert.Equal(t, "https://test-membrane-proof-service.holo.host", s.MemProofServerURL)
	assert.Equal(t, "/var/lib/configure-holochain/mem-proof", s.MemProofPath)
	assert.Equal(t, "/var/lib/holo-auth/zt-auth-done-notification", s.ZtNotificationsPath)
	assert.Equal(t, "", s.PubkeyPath)
	assert.Equal(t, "/run/hpos-init/hp-*.json", s.ValidationConfigGlob)
	assert.Equal(t, "/var/lib/zerotier-one/identity.secret", s.ZerotierIdentityPath)
	assert.Equal(t, "holohost.net", s.HoloportDomain)
	assert.Equal(t, "holohost.dev", s.HoloportDomainDev)
	assert.Equal(t, 30*time.Second, s.HTTPTimeout)
	assert.Equal(t, instanceutils.DefaultRetryConfig(), s.Retry)
	assert.False(t, s.IsDevNetwork())
	assert.False(t, s.OverlayEnabled())
}

func TestResolveSettings_Env(t *testing.T) {
	t.Setenv("HPOS_CONFIG_PATH", "/run/hpos-config.json")
	t.Setenv("DEVICE_BUNDLE_PASSWORD", "pw")
	t.Setenv("AUTH_SERVER_URL", "http://127.0.0.1:8080")
	t.Setenv("PUBKEY_PATH", "/var/lib/holochain/agent.key")
	t.Setenv("HOLO_NETWORK", "devNet")
	t.Setenv("ZT_STATUS", "ACCESS_DENIED")
	t.Setenv("HTTP_TIMEOUT", "10s")
	t.Setenv("RETRY_MAX_INTERVAL", "1m")
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")

	s, err := resolve(t)
	require.NoError(t, err)

	assert.Equal(t, "/run/hpos-config.json", s.HposConfigPath)
	assert.Equal(t, "pw", s.DeviceBundlePassword)
	assert.Equal(t, "http://127.0.0.1:8080", s.AuthServerURL)
	assert.Equal(t, "/var/lib/holochain/agent.key", s.PubkeyPath)
	assert.True(t, s.IsDevNetwork())
	assert.True(t, s.OverlayEnabled())
	assert.Equal(t, "holohost.dev", s.HoloportSuffix())
	assert.Equal(t, 10*time.Second, s.HTTPTimeout)
	assert.Equal(t, time.Minute, s.Retry.MaxInterval)
	assert.EqualValues(t, 5, s.Retry.MaxAttempts)
}

func TestResolveSettings_PassphraseAlias(t *testing.T) {
	t.Setenv("HPOS_CONFIG_PATH", "/run/hpos-config.json")
	t.Setenv("DEVICE_SEED_DEFAULT_PASSWORD", "seed-pw")

	s, err := resolve(t)
	require.NoError(t, err)
	assert.Equal(t, "seed-pw", s.DeviceBundlePassword)
}

func TestResolveSettings_NegativeMaxAttempts(t *testing.T) {
	_, err := resolve(t, "--hpos-config-path", "/etc/hpos-config.json", "--retry-max-attempts", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry-max-attempts")
}

func TestResolveSettings_Invalid(t *testing.T) {
	_, err := resolve(t)
	require.ErrorContains(t, err, "hpos config path is required")

	_, err = resolve(t, "--hpos-config-path", "/etc/hpos-config.json", "--holoport-domain", "holo..host")
	require.ErrorContains(t, err, "invalid holoport domain")

	_, err = resolve(t, "--hpos-config-path", "/etc/hpos-config.json", "--retry-jitter", "1.5")
	require.ErrorContains(t, err, "retry jitter")
}

func TestResolveSettings_YAMLConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holo-auth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`hpos-config-path: /etc/hpos-config.json
holo-network: devNet
zt-status: ACCESS_DENIED
retry-max-interval: 1m
retry-jitter: 0.25
retry-max-attempts: 7
`), 0o600))

	s, err := resolve(t, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "/etc/hpos-config.json", s.HposConfigPath)
	assert.True(t, s.IsDevNetwork())
	assert.True(t, s.OverlayEnabled())
	assert.Equal(t, time.Minute, s.Retry.MaxInterval)
	assert.Equal(t, 0.25, s.Retry.RandomizationFactor)
	assert.EqualValues(t, 7, s.Retry.MaxAttempts)

	// Flags take precedence over the file
	s, err = resolve(t, "--config", path, "--holo-network", "mainNet")
	require.NoError(t, err)
	assert.False(t, s.IsDevNetwork())
}

func TestResolveSettings_Subcommand(t *testing.T) {
	s, err := resolve(t, "--hpos-config-path", "/etc/hpos-config.json", "--zt-status", "ACCESS_DENIED", "validate")
	require.NoError(t, err)
	assert.Equal(t, "/etc/hpos-config.json", s.HposConfigPath)
	assert.True(t, s.OverlayEnabled())
}
