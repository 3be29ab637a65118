// Package main (cmd/holo-auth) onboards a holoport onto the Holo network. It
// is run once per boot and exits when onboarding is complete, or with a
// non-zero status when a step fails.
//
// A run goes through three phases:
//
//  1. The agent key already used by the local conductor (pubkey-path) is
//     compared with the key derived from the device bundle. A mismatch aborts
//     the run and the host has to be reset. The check is skipped on devNet.
//  2. Unless the membrane proof file exists, the host is registered with the
//     membrane-proof service and the returned proof is written to that file.
//     Rejections are reported to the admin email and end the run.
//  3. When ZT_STATUS is ACCESS_DENIED, the ZeroTier identity is registered with
//     the auth server, retrying with exponential backoff until it succeeds.
//
// Every flag can be set from the environment or from a YAML file given with
// --config.
package main
