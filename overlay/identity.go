// Package overlay reads the local ZeroTier identity used to sign overlay
// registration requests.
package overlay

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ruteri/holo-auth-client/interfaces"
)

const (
	DefaultIdentityPath = "/var/lib/zerotier-one/identity.secret"

	addressHexLen = 10
	keyPairLen    = 64
)

var ErrNoPrivateKey = errors.New("zerotier identity has no private key")

// Identity is a ZeroTier identity: a 40-bit address and a combined
// C25519/Ed25519 keypair. Only the Ed25519 half is used here.
type Identity struct {
	address string
	public  ed25519.PublicKey
	private ed25519.PrivateKey
}

var _ interfaces.OverlayIdentity = (*Identity)(nil)

// ParseIdentity parses the identity.secret format:
//
//	<address>:0:<public hex (64 bytes)>:<private hex (64 bytes)>
func ParseIdentity(s string) (*Identity, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 3 {
		return nil, fmt.Errorf("invalid zerotier identity: expected at least 3 fields, got %d", len(parts))
	}

	address := strings.ToLower(parts[0])
	if len(address) != addressHexLen {
		return nil, fmt.Errorf("invalid zerotier address %q", parts[0])
	}
	if _, err := hex.DecodeString(address); err != nil {
		return nil, fmt.Errorf("invalid zerotier address %q: %w", parts[0], err)
	}
	if parts[1] != "0" {
		return nil, fmt.Errorf("unsupported zerotier identity type %q", parts[1])
	}

	pub, err := hex.DecodeString(parts[2])
	if err != nil || len(pub) != keyPairLen {
		return nil, errors.New("invalid zerotier public key")
	}
	identity := &Identity{
		address: address,
		public:  ed25519.PublicKey(pub[32:]),
	}

	if len(parts) < 4 || parts[3] == "" {
		return identity, nil
	}

	priv, err := hex.DecodeString(parts[3])
	if err != nil || len(priv) != keyPairLen {
		return nil, errors.New("invalid zerotier private key")
	}
	identity.private = ed25519.NewKeyFromSeed(priv[32:])
	if !bytes.Equal(identity.private.Public().(ed25519.PublicKey), identity.public) {
		return nil, errors.New("zerotier private key does not match public key")
	}
	return identity, nil
}

// ReadIdentity reads and parses an identity.secret file.
func ReadIdentity(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read zerotier identity: %w", err)
	}
	return ParseIdentity(string(data))
}

// GenerateIdentity creates a random identity. The address is random rather
// than derived, which is sufficient for local tooling and tests.
func GenerateIdentity() (*Identity, error) {
	var seed [32]byte
	var addr [5]byte
	if _, err := io.ReadFull(rand.Reader, seed[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(rand.Reader, addr[:]); err != nil {
		return nil, err
	}
	private := ed25519.NewKeyFromSeed(seed[:])
	return &Identity{
		address: hex.EncodeToString(addr[:]),
		public:  private.Public().(ed25519.PublicKey),
		private: private,
	}, nil
}

// Address is the 10 hex character ZeroTier address.
func (i *Identity) Address() string {
	return i.address
}

// PublicKey is the Ed25519 half of the identity public key.
func (i *Identity) PublicKey() ed25519.PublicKey {
	return i.public
}

func (i *Identity) HasPrivateKey() bool {
	return i.private != nil
}

// Sign signs message with the Ed25519 private key. It returns
// ErrNoPrivateKey if the identity was parsed without one.
func (i *Identity) Sign(message []byte) ([]byte, error) {
	if i.private == nil {
		return nil, ErrNoPrivateKey
	}
	return ed25519.Sign(i.private, message), nil
}

// MarshalSecret renders the identity in identity.secret format. The C25519
// halves are zero-filled.
func (i *Identity) MarshalSecret() string {
	pub := make([]byte, keyPairLen)
	copy(pub[32:], i.public)
	s := fmt.Sprintf("%s:0:%s", i.address, hex.EncodeToString(pub))
	if i.private != nil {
		priv := make([]byte, keyPairLen)
		copy(priv[32:], i.private.Seed())
		s += ":" + hex.EncodeToString(priv)
	}
	return s
}

// FileSource reads the identity from disk on every call.
type FileSource struct {
	Path string
}

// ReadIdentity parses Path and requires the identity to carry a private key.
func (s *FileSource) ReadIdentity() (interfaces.OverlayIdentity, error) {
	identity, err := ReadIdentity(s.Path)
	if err != nil {
		return nil, err
	}
	if !identity.HasPrivateKey() {
		return nil, ErrNoPrivateKey
	}
	return identity, nil
}
