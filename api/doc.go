/*
Package api defines the wire protocol between the host and the Holo
authorities, and hosts the client implementations in its subpackages.

# Endpoints

All requests are single JSON POSTs:

  - register-user (membrane-proof service): RegistrationRequest ->
    RegistrationResponse, or RegistrationErrorResponse on failure
  - /v1/zt_registration (auth server): ZtRegistrationRequest -> any ack body
  - /v1/notify (auth server): NotifyRequest -> NotifyResponse
  - /v1/challenge (auth server, legacy): ChallengeRequest

# Subpackages

  - clients: HTTP clients for each endpoint plus testify mocks
  - authtest: in-process fake authority for tests
*/
package api
