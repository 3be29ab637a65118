package clients

import (
	"crypto/ed25519"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/ruteri/holo-auth-client/api/authtest"
	"github.com/ruteri/holo-auth-client/hposconfig"
	"github.com/ruteri/holo-auth-client/interfaces"
	"github.com/ruteri/holo-auth-client/storage"
	"github.com/stretchr/testify/require"
)

const testEmail = "admin@example.com"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSeed() []byte {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(255 - i)
	}
	return seed
}

func testV2Config(t *testing.T) (*hposconfig.Config, interfaces.AgentPubKey) {
	cfg, err := hposconfig.NewV2(testSeed(), "pass", testEmail, "REG-CODE-1")
	require.NoError(t, err)
	key, err := cfg.HoloportPublicKey("pass")
	require.NoError(t, err)
	return cfg, key
}

func testV1Config(t *testing.T) (*hposconfig.Config, interfaces.AgentPubKey) {
	cfg := hposconfig.NewV1(testSeed(), testEmail)
	key, err := cfg.HoloportPublicKey("")
	require.NoError(t, err)
	return cfg, key
}

func newAuthServer(t *testing.T) *authtest.Server {
	srv := authtest.New(testLogger())
	t.Cleanup(srv.Close)
	return srv
}

func newMarker(t *testing.T, name string) *storage.MarkerFile {
	return storage.NewMarkerFile(filepath.Join(t.TempDir(), name), testLogger())
}

func newNotifyClient(srv *authtest.Server) *NotifyClient {
	return &NotifyClient{
		ServerAddr: srv.URL,
		HTTPClient: NewHTTPClient(5 * time.Second),
		Log:        testLogger(),
	}
}

func markerExists(t *testing.T, m *storage.MarkerFile) bool {
	t.Helper()
	exists, err := m.Exists()
	require.NoError(t, err)
	return exists
}
