// Package instanceutils orchestrates the onboarding of a holoport.
//
// Onboarder runs the phases in order and records the current State:
//
//	validate -> awaiting-registration -> awaiting-overlay-auth -> done
//
//   - KeyConsistencyValidator refuses to continue when the key used by the
//     local conductor differs from the one derived from the device bundle.
//   - registration runs once, and only when the membrane proof file is absent.
//   - overlay registration runs when enabled and is driven by a
//     RetryController until it succeeds, the context is cancelled, or a
//     configured limit is reached.
//
// Settings gathers every option in one place. NewOnboarder builds the
// authority clients from it around a single shared HTTP client.
//
// LegacyChallenge is the email confirmation used by hosts on hpos-config v1.
package instanceutils
