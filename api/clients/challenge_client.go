package clients

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ruteri/holo-auth-client/api"
	"github.com/ruteri/holo-auth-client/interfaces"
)

// ChallengeClient drives the legacy email confirmation used by hosts still
// on hpos-config v1.
type ChallengeClient struct {
	// ServerAddr is the base URL of the auth server
	ServerAddr string

	HTTPClient *http.Client
	Log        *slog.Logger
}

// Confirm asks the auth server to send the legacy confirmation email.
// Parameters:
//   - email: the admin email from the configuration
//   - key: the host agent key, sent in its base36 form
//   - zerotierAddress: the 10 hex character ZeroTier address of the host
//
// Returns an error on transport failures and non-2xx responses.
func (c *ChallengeClient) Confirm(ctx context.Context, email string, key interfaces.AgentPubKey, zerotierAddress string) error {
	resp, err := postJSON(ctx, c.HTTPClient, c.ServerAddr+api.ChallengePath, &api.ChallengeRequest{
		Email:              email,
		HolochainPublicKey: key.Base36ID(),
		ZerotierAddress:    zerotierAddress,
	})
	if err != nil {
		return fmt.Errorf("could not request challenge endpoint: %w", err)
	}
	defer resp.Body.Close()

	body := readBody(resp)
	if !isSuccess(resp) {
		return fmt.Errorf("challenge endpoint returned error %s", statusError(resp, body))
	}

	c.Log.Debug("Challenge accepted", slog.Int("status", resp.StatusCode), slog.String("email", email))
	return nil
}
