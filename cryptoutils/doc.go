// Package cryptoutils implements the holoport key material.
//
// # Agent keys
//
// AgentPubKey is a 32-byte ed25519 public key. It has three encodings:
//
//   - the 39-byte holo hash: 0x84 0x20 0x24, the key, and a 4-byte DHT location
//     (blake2b-128 of the key folded with xor)
//   - the "u"-prefixed unpadded base64url form of the holo hash, as used by
//     holochain ("uhCAk...")
//   - the lowercase base36 form of the key, used in holoport URLs
//
// # Seed bundles
//
// A v2 device bundle seals the 32-byte ed25519 seed with nacl/secretbox under
// a key derived from the passphrase with argon2id:
//
//	base64url(version(1) || salt(16) || nonce(24) || box)
package cryptoutils
