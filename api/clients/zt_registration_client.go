package clients

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ruteri/holo-auth-client/api"
	"github.com/ruteri/holo-auth-client/interfaces"
	"github.com/ruteri/holo-auth-client/storage"
)

// ZtRegistrationClient registers the host ZeroTier identity with the auth
// server. Attempt performs a single request; retrying is up to the caller.
type ZtRegistrationClient struct {
	// ServerAddr is the base URL of the auth server
	ServerAddr string

	// HoloportDomain is the hostname suffix of the public holoport URL
	HoloportDomain string

	HTTPClient *http.Client
	Identity   interfaces.OverlayIdentitySource
	Marker     *storage.MarkerFile
	Log        *slog.Logger
}

var _ interfaces.OverlayAuthority = (*ZtRegistrationClient)(nil)

// HoloportURL is the public URL of a host: https://<base36 key>.<domain>
func HoloportURL(key interfaces.AgentPubKey, domain string) string {
	return fmt.Sprintf("https://%s.%s", key.Base36ID(), domain)
}

// Attempt signs and sends one zt_registration request and touches Marker
// when the auth server accepts it.
// Parameters:
//   - cfg: the device configuration, must support the registration authority
//   - key: the host agent key, used for the agent id and the holoport URL
//
// Returns ErrConfigVersion for configurations that cannot register, and
// ErrZtRegistration for identity, signing, transport and non-2xx failures.
// No notification is sent.
func (c *ZtRegistrationClient) Attempt(ctx context.Context, cfg interfaces.Configuration, key interfaces.AgentPubKey) error {
	if !cfg.SupportsRegistrationAuthority() {
		return interfaces.ErrConfigVersion
	}

	identity, err := c.Identity.ReadIdentity()
	if err != nil {
		return fmt.Errorf("%w: could not read zerotier identity: %w", interfaces.ErrZtRegistration, err)
	}

	data := api.ZtData{
		Email:            cfg.AdminEmail(),
		HolochainAgentID: key.Base36ID(),
		ZerotierAddress:  identity.Address(),
		HoloportURL:      HoloportURL(key, c.HoloportDomain),
	}
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("could not encode zt registration data: %w", err)
	}

	signature, err := identity.Sign(dataBytes)
	if err != nil {
		return fmt.Errorf("%w: could not sign zt registration data: %w", interfaces.ErrZtRegistration, err)
	}

	resp, err := postJSON(ctx, c.HTTPClient, c.ServerAddr+api.ZtRegistrationPath, &api.ZtRegistrationRequest{
		Data:      data,
		Signature: base64.StdEncoding.EncodeToString(signature),
	})
	if err != nil {
		return fmt.Errorf("%w: could not request zt_registration endpoint: %w", interfaces.ErrZtRegistration, err)
	}
	defer resp.Body.Close()

	body := readBody(resp)
	if !isSuccess(resp) {
		return fmt.Errorf("%w: %s", interfaces.ErrZtRegistration, statusError(resp, body))
	}
	c.Log.Info("auth-server response", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))

	if err := c.Marker.Touch(); err != nil {
		return fmt.Errorf("could not write zt auth marker: %w", err)
	}
	return nil
}
