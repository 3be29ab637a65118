// Package interfaces defines the domain types, error kinds and collaborator
// contracts shared by the onboarding components.
//
// # Collaborators
//
// RegistrationAuthority: obtains the membrane proof from the registration
// authority and persists it to the registration marker.
//
// OverlayAuthority: performs one overlay (ZeroTier) registration attempt and
// writes the overlay completion marker on success.
//
// Notifier: sends failure reports to the administrator email.
//
// OverlayIdentitySource: reads the local overlay identity, fresh on every call.
//
// # Error Kinds
//
// ErrConfigVersion, ErrRegistration, ErrZtRegistration and ErrInitialization
// are the failure kinds of the onboarding flow. ErrCancelled and
// ErrRetriesExhausted are the terminal outcomes of a bounded retry loop.
// Errors are wrapped with fmt.Errorf("%w: ...") and checked with errors.Is.
package interfaces
