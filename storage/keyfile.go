package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ruteri/holo-auth-client/cryptoutils"
)

var (
	ErrKeyNotFound = errors.New("stored key not found")
	ErrZeroKey     = errors.New("stored key is all zeros")
)

// KeyFile is the agent key written by the local holochain conductor, stored
// as a raw 39-byte holo hash. It is never written by this program.
type KeyFile struct {
	Path string
}

// Load reads and decodes the stored key. It returns ErrKeyNotFound if no
// path is configured or the file is absent, and ErrZeroKey for a key that
// was never initialized.
func (k *KeyFile) Load() (cryptoutils.AgentPubKey, error) {
	if k.Path == "" {
		return cryptoutils.AgentPubKey{}, ErrKeyNotFound
	}
	raw, err := os.ReadFile(k.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return cryptoutils.AgentPubKey{}, ErrKeyNotFound
	} else if err != nil {
		return cryptoutils.AgentPubKey{}, fmt.Errorf("failed to read stored key: %w", err)
	}

	key, err := cryptoutils.ParseAgentPubKeyRaw39(raw)
	if err != nil {
		return cryptoutils.AgentPubKey{}, fmt.Errorf("failed to decode stored key: %w", err)
	}
	if key.IsZero() {
		return cryptoutils.AgentPubKey{}, ErrZeroKey
	}
	return key, nil
}
