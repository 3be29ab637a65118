package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ruteri/holo-auth-client/api"
	"github.com/ruteri/holo-auth-client/interfaces"
	"github.com/ruteri/holo-auth-client/storage"
)

// RegistrationClient obtains the membrane proof from the membrane-proof
// service and persists it to the registration marker.
//
// Register performs exactly one request. Callers must check the marker
// before calling; a present marker means registration already happened.
type RegistrationClient struct {
	// ServerAddr is the base URL of the membrane-proof service
	ServerAddr string

	HTTPClient *http.Client
	Marker     *storage.MarkerFile
	Notifier   interfaces.Notifier
	Log        *slog.Logger
}

var _ interfaces.RegistrationAuthority = (*RegistrationClient)(nil)

// Register requests the membrane proof for key and writes it to Marker.
// Parameters:
//   - cfg: the device configuration, must support the registration authority
//   - key: the host agent key derived from cfg
//
// Returns:
//   - ErrConfigVersion for configurations that cannot register, after the
//     admin has been notified
//   - ErrRegistration wrapping the authority message on rejection, after the
//     admin has been notified, and on transport or decoding failures
//   - a notification error in place of the above if notifying fails
func (c *RegistrationClient) Register(ctx context.Context, cfg interfaces.Configuration, key interfaces.AgentPubKey) error {
	email := cfg.AdminEmail()

	if !cfg.SupportsRegistrationAuthority() {
		if err := c.Notifier.NotifyFailure(ctx, email, interfaces.ErrConfigVersion.Error()); err != nil {
			return fmt.Errorf("could not send failure notification: %w", err)
		}
		return interfaces.ErrConfigVersion
	}

	resp, err := postJSON(ctx, c.HTTPClient, c.ServerAddr+api.RegisterUserPath, &api.RegistrationRequest{
		RegistrationCode: cfg.RegistrationCode(),
		AgentPubKey:      key.Encoded(),
		Email:            email,
		Payload:          api.RegistrationPayload{Role: api.HostRole},
	})
	if err != nil {
		return fmt.Errorf("%w: could not request register-user endpoint: %w", interfaces.ErrRegistration, err)
	}
	defer resp.Body.Close()

	body := readBody(resp)
	if !isSuccess(resp) {
		rejection := parseRegistrationError(resp, body)
		c.Log.Error("Registration rejected", slog.Int("status", resp.StatusCode), slog.String("error", rejection.Error), slog.String("info", rejection.Info))

		if err := c.Notifier.NotifyFailure(ctx, email, rejection.String()); err != nil {
			return fmt.Errorf("could not send failure notification: %w", err)
		}
		return fmt.Errorf("%w: %s", interfaces.ErrRegistration, rejection.String())
	}

	var parsed api.RegistrationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("%w: could not parse registration response: %w", interfaces.ErrRegistration, err)
	}
	if parsed.MemProof == "" {
		return fmt.Errorf("%w: %w", interfaces.ErrRegistration, errors.New("registration response carries no mem_proof"))
	}

	if err := c.Marker.Write([]byte(parsed.MemProof)); err != nil {
		return fmt.Errorf("could not persist membrane proof: %w", err)
	}

	c.Log.Info("Registration completed", slog.String("memProofPath", c.Marker.Path()))
	return nil
}

// parseRegistrationError decodes the structured error body, falling back to
// the HTTP status and raw body when the authority did not send one.
func parseRegistrationError(resp *http.Response, body []byte) api.RegistrationErrorResponse {
	var parsed api.RegistrationErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		return parsed
	}
	return api.RegistrationErrorResponse{
		Error: fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		Info:  string(body),
	}
}
