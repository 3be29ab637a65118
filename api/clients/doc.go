/*
Package clients implements the HTTP clients used to onboard a host.

  - RegistrationClient: membrane-proof registration (register-user). Writes
    the returned proof to the registration marker and notifies the admin on
    rejection. Never retried.
  - ZtRegistrationClient: a single signed overlay registration attempt
    (zt_registration). Writes the overlay marker on success.
  - NotifyClient: failure reports to the admin email (notify).
  - ChallengeClient: legacy v1 email confirmation (challenge).

All clients share one *http.Client built by NewHTTPClient; its timeout bounds
every call and the request context allows cancellation.

Mock implementations of the collaborator interfaces live in mocks.go.
*/
package clients
