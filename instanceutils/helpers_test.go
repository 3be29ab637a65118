package instanceutils

import (
	"crypto/ed25519"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ruteri/holo-auth-client/hposconfig"
	"github.com/ruteri/holo-auth-client/interfaces"
	"github.com/ruteri/holo-auth-client/storage"
	"github.com/stretchr/testify/require"
)

const (
	testEmail      = "admin@example.com"
	testPassphrase = "pass"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSeed(n byte) []byte {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = n + byte(i)
	}
	return seed
}

// writeConfig writes a v2 bundle for seed n and returns its path and key.
func writeConfig(t *testing.T, dir, name string, n byte) (string, interfaces.AgentPubKey) {
	cfg, err := hposconfig.NewV2(testSeed(n), testPassphrase, testEmail, "REG-CODE-1")
	require.NoError(t, err)
	key, err := cfg.HoloportPublicKey(testPassphrase)
	require.NoError(t, err)

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path, key
}

func writeStoredKey(t *testing.T, dir string, key interfaces.AgentPubKey) string {
	path := filepath.Join(dir, "agent-key.pub")
	require.NoError(t, os.WriteFile(path, key.HoloHash(), 0o600))
	return path
}

// fakeTimer fires immediately and records every requested delay.
type fakeTimer struct {
	c      chan time.Time
	delays []time.Duration
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{c: make(chan time.Time, 1)}
}

func (t *fakeTimer) Start(d time.Duration) {
	t.delays = append(t.delays, d)
	t.c <- time.Time{}
}

func (t *fakeTimer) Stop() {}

func (t *fakeTimer) C() <-chan time.Time {
	return t.c
}

func markerExists(t *testing.T, m *storage.MarkerFile) bool {
	t.Helper()
	exists, err := m.Exists()
	require.NoError(t, err)
	return exists
}
