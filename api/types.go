package api

import (
	"fmt"

	"github.com/google/uuid"
)

// Authority endpoint paths, relative to the configured base URLs.
const (
	RegisterUserPath   = "/register-user/"
	ZtRegistrationPath = "/v1/zt_registration"
	NotifyPath         = "/v1/notify"
	ChallengePath      = "/v1/challenge"
)

// HostRole is the fixed role tag sent with every registration.
const HostRole = "host"

// RegistrationRequest is the register-user payload sent to the
// membrane-proof service.
type RegistrationRequest struct {
	RegistrationCode string              `json:"registration_code"`
	AgentPubKey      string              `json:"agent_pub_key"`
	Email            string              `json:"email"`
	Payload          RegistrationPayload `json:"payload"`
}

type RegistrationPayload struct {
	Role string `json:"role"`
}

// RegistrationResponse carries the opaque membrane proof.
type RegistrationResponse struct {
	MemProof string `json:"mem_proof"`
}

// RegistrationErrorResponse is returned by the membrane-proof service on
// non-2xx statuses.
type RegistrationErrorResponse struct {
	Error             string `json:"error"`
	Info              string `json:"info"`
	IsDisplayedToUser bool   `json:"isDisplayedToUser"`
}

// String renders the rejection as it is reported to the admin.
func (e RegistrationErrorResponse) String() string {
	return fmt.Sprintf("Error: %s, More Info: %s", e.Error, e.Info)
}

// ZtData is the signed part of a zt_registration request. It is serialized
// once and the same bytes are both signed and sent.
type ZtData struct {
	Email            string `json:"email"`
	HolochainAgentID string `json:"holochain_agent_id"`
	ZerotierAddress  string `json:"zerotier_address"`
	HoloportURL      string `json:"holoport_url"`
}

type ZtRegistrationRequest struct {
	Data      ZtData `json:"data"`
	Signature string `json:"signature"` // base64 ed25519 signature over json(Data)
}

type NotifyRequest struct {
	Email   string `json:"email"`
	Success bool   `json:"success"`
	Data    string `json:"data"`
}

// NotifyResponse is the mail provider receipt forwarded by the auth server.
type NotifyResponse struct {
	MessageID uuid.UUID `json:"MessageID"`
}

// ChallengeRequest is the legacy (hpos-config v1) email confirmation payload.
type ChallengeRequest struct {
	Email              string `json:"email"`
	HolochainPublicKey string `json:"holochain_public_key"`
	ZerotierAddress    string `json:"zerotier_address"`
}
