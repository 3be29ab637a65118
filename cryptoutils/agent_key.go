package cryptoutils

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/multiformats/go-base36"
	"golang.org/x/crypto/blake2b"
)

// AgentPubKeyPrefix is the holo hash type prefix of an agent public key.
// It renders as "hCAk" in base64.
var AgentPubKeyPrefix = [3]byte{0x84, 0x20, 0x24}

const (
	AgentPubKeySize   = ed25519.PublicKeySize
	HoloHashSize      = len(AgentPubKeyPrefix) + AgentPubKeySize + DHTLocationSize
	DHTLocationSize   = 4
	holoHashMultibase = "u"
)

var (
	ErrInvalidAgentKeyLength = errors.New("invalid agent key length")
	ErrInvalidAgentKeyPrefix = errors.New("invalid agent key prefix")
	ErrInvalidDHTLocation    = errors.New("agent key dht location does not match key")
)

// AgentPubKey is the 32-byte ed25519 public key identifying the host
// on the holochain network.
type AgentPubKey [AgentPubKeySize]byte

// NewAgentPubKey wraps a 32-byte ed25519 public key.
func NewAgentPubKey(pub ed25519.PublicKey) (AgentPubKey, error) {
	if len(pub) != AgentPubKeySize {
		return AgentPubKey{}, fmt.Errorf("%w: %d", ErrInvalidAgentKeyLength, len(pub))
	}
	var key AgentPubKey
	copy(key[:], pub)
	return key, nil
}

// ParseAgentPubKeyRaw39 decodes a raw holo hash (prefix || key || location)
// as written by the conductor to the stored key file.
func ParseAgentPubKeyRaw39(raw []byte) (AgentPubKey, error) {
	if len(raw) != HoloHashSize {
		return AgentPubKey{}, fmt.Errorf("%w: %d", ErrInvalidAgentKeyLength, len(raw))
	}
	if !bytes.Equal(raw[:3], AgentPubKeyPrefix[:]) {
		return AgentPubKey{}, ErrInvalidAgentKeyPrefix
	}

	var key AgentPubKey
	copy(key[:], raw[3:3+AgentPubKeySize])

	loc := DHTLocation(key[:])
	if !bytes.Equal(raw[3+AgentPubKeySize:], loc[:]) {
		return AgentPubKey{}, ErrInvalidDHTLocation
	}
	return key, nil
}

// ParseAgentPubKeyEncoded is the inverse of AgentPubKey.Encoded.
func ParseAgentPubKeyEncoded(s string) (AgentPubKey, error) {
	if len(s) == 0 || s[:1] != holoHashMultibase {
		return AgentPubKey{}, errors.New("agent key is not a base64url multibase string")
	}
	raw, err := base64.RawURLEncoding.DecodeString(s[1:])
	if err != nil {
		return AgentPubKey{}, fmt.Errorf("could not decode agent key: %w", err)
	}
	return ParseAgentPubKeyRaw39(raw)
}

// DHTLocation computes the 4-byte location of data: blake2b-128 of the
// data, xor-folded into 4 bytes.
func DHTLocation(data []byte) [DHTLocationSize]byte {
	h, _ := blake2b.New(16, nil)
	h.Write(data)
	sum := h.Sum(nil)

	var out [DHTLocationSize]byte
	copy(out[:], sum[:4])
	for i := 4; i < len(sum); i += 4 {
		out[0] ^= sum[i]
		out[1] ^= sum[i+1]
		out[2] ^= sum[i+2]
		out[3] ^= sum[i+3]
	}
	return out
}

// HoloHash returns the 39-byte holo hash of the key.
func (k AgentPubKey) HoloHash() []byte {
	loc := DHTLocation(k[:])
	out := make([]byte, 0, HoloHashSize)
	out = append(out, AgentPubKeyPrefix[:]...)
	out = append(out, k[:]...)
	out = append(out, loc[:]...)
	return out
}

// Encoded returns the holochain string form of the key ("uhCAk...").
func (k AgentPubKey) Encoded() string {
	return holoHashMultibase + base64.RawURLEncoding.EncodeToString(k.HoloHash())
}

// Base36ID returns the lowercase base36 form used as the holoport id and
// as the DNS label of the holoport URL.
func (k AgentPubKey) Base36ID() string {
	return base36.EncodeToStringLc(k[:])
}

func (k AgentPubKey) Equal(other AgentPubKey) bool {
	return k == other
}

// IsZero reports whether the key was never set.
func (k AgentPubKey) IsZero() bool {
	return k == AgentPubKey{}
}

func (k AgentPubKey) String() string {
	return k.Encoded()
}
