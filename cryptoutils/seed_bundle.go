package cryptoutils

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	seedBundleVersion byte = 1
	seedBundleSalt         = 16
	seedBundleNonce        = 24
)

var ErrSeedBundleLocked = errors.New("could not unlock seed bundle: wrong passphrase or corrupted bundle")

// SealSeedBundle encrypts a 32-byte device seed under passphrase.
//
// Format (base64url, no padding):
//
//	[version (1 byte)][salt (16 bytes)][nonce (24 bytes)][secretbox(seed)]
func SealSeedBundle(seed []byte, passphrase string) (string, error) {
	if len(seed) != ed25519.SeedSize {
		return "", fmt.Errorf("invalid seed length %d", len(seed))
	}

	buf := make([]byte, 1+seedBundleSalt+seedBundleNonce)
	buf[0] = seedBundleVersion
	if _, err := io.ReadFull(rand.Reader, buf[1:]); err != nil {
		return "", fmt.Errorf("failed to generate bundle salt and nonce: %w", err)
	}

	salt := buf[1 : 1+seedBundleSalt]
	var nonce [seedBundleNonce]byte
	copy(nonce[:], buf[1+seedBundleSalt:])

	key := bundleKey(passphrase, salt)
	sealed := secretbox.Seal(buf, seed, &nonce, &key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// OpenSeedBundle decrypts a bundle produced by SealSeedBundle and returns the seed.
func OpenSeedBundle(bundle string, passphrase string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(bundle)
	if err != nil {
		return nil, fmt.Errorf("could not decode seed bundle: %w", err)
	}
	if len(raw) < 1+seedBundleSalt+seedBundleNonce+secretbox.Overhead {
		return nil, errors.New("seed bundle too short")
	}
	if raw[0] != seedBundleVersion {
		return nil, fmt.Errorf("unsupported seed bundle version %d", raw[0])
	}

	salt := raw[1 : 1+seedBundleSalt]
	var nonce [seedBundleNonce]byte
	copy(nonce[:], raw[1+seedBundleSalt:1+seedBundleSalt+seedBundleNonce])

	key := bundleKey(passphrase, salt)
	seed, ok := secretbox.Open(nil, raw[1+seedBundleSalt+seedBundleNonce:], &nonce, &key)
	if !ok {
		return nil, ErrSeedBundleLocked
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed length %d in bundle", len(seed))
	}
	return seed, nil
}

// AgentPubKeyFromSeed derives the ed25519 public key of a device seed.
func AgentPubKeyFromSeed(seed []byte) (AgentPubKey, error) {
	if len(seed) != ed25519.SeedSize {
		return AgentPubKey{}, fmt.Errorf("invalid seed length %d", len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return NewAgentPubKey(priv.Public().(ed25519.PublicKey))
}

func bundleKey(passphrase string, salt []byte) [32]byte {
	var key [32]byte
	copy(key[:], argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, 32))
	return key
}
