package instanceutils

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ruteri/holo-auth-client/api/authtest"
	"github.com/ruteri/holo-auth-client/api/clients"
	"github.com/ruteri/holo-auth-client/hposconfig"
	"github.com/ruteri/holo-auth-client/overlay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type challengeFixture struct {
	srv          *authtest.Server
	identityPath string
	address      string
	challenge    *LegacyChallenge
}

func newChallengeFixture(t *testing.T, configPath string) *challengeFixture {
	srv := authtest.New(testLogger())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	identity, err := overlay.GenerateIdentity()
	require.NoError(t, err)
	identityPath := filepath.Join(dir, "identity.secret")
	require.NoError(t, os.WriteFile(identityPath, []byte(identity.MarshalSecret()), 0o600))

	return &challengeFixture{
		srv:          srv,
		identityPath: identityPath,
		address:      identity.Address(),
		challenge: &LegacyChallenge{
			Identity: &ConfigIdentityLoader{Path: configPath},
			Overlay:  &overlay.FileSource{Path: identityPath},
			Client: &clients.ChallengeClient{
				ServerAddr: srv.URL,
				HTTPClient: clients.NewHTTPClient(5 * time.Second),
				Log:        testLogger(),
			},
			Log: testLogger(),
		},
	}
}

func writeV1Config(t *testing.T, dir string) string {
	data, err := json.Marshal(hposconfig.NewV1(testSeed(3), testEmail))
	require.NoError(t, err)
	path := filepath.Join(dir, "hpos-config.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLegacyChallenge_V1Config(t *testing.T) {
	configPath := writeV1Config(t, t.TempDir())
	f := newChallengeFixture(t, configPath)

	_, key, err := f.challenge.Identity.LoadIdentity()
	require.NoError(t, err)

	require.NoError(t, f.challenge.Run(context.Background()))
	require.EqualValues(t, 1, f.srv.ChallengeCalls.Load())

	challenges := f.srv.Challenges()
	require.Len(t, challenges, 1)
	assert.Equal(t, testEmail, challenges[0].Email)
	assert.Equal(t, key.Base36ID(), challenges[0].HolochainPublicKey)
	assert.Equal(t, f.address, challenges[0].ZerotierAddress)
}

func TestLegacyChallenge_V2ConfigStillSent(t *testing.T) {
	dir := t.TempDir()
	configPath, key := writeConfig(t, dir, "hpos-config.json", 4)
	f := newChallengeFixture(t, configPath)
	f.challenge.Identity = &ConfigIdentityLoader{Path: configPath, Passphrase: testPassphrase}

	require.NoError(t, f.challenge.Run(context.Background()))

	challenges := f.srv.Challenges()
	require.Len(t, challenges, 1)
	assert.Equal(t, key.Base36ID(), challenges[0].HolochainPublicKey)
}

func TestLegacyChallenge_IdentityLoadError(t *testing.T) {
	f := newChallengeFixture(t, filepath.Join(t.TempDir(), "missing.json"))

	err := f.challenge.Run(context.Background())
	require.ErrorContains(t, err, "could not load host identity")
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.EqualValues(t, 0, f.srv.ChallengeCalls.Load())
}

func TestLegacyChallenge_OverlayReadError(t *testing.T) {
	configPath := writeV1Config(t, t.TempDir())
	f := newChallengeFixture(t, configPath)
	require.NoError(t, os.Remove(f.identityPath))

	err := f.challenge.Run(context.Background())
	require.ErrorContains(t, err, "could not read zerotier identity")
	assert.EqualValues(t, 0, f.srv.ChallengeCalls.Load())
}

func TestLegacyChallenge_ServerUnavailable(t *testing.T) {
	configPath := writeV1Config(t, t.TempDir())
	f := newChallengeFixture(t, configPath)
	f.srv.Close()

	require.Error(t, f.challenge.Run(context.Background()))
}
