package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/ruteri/holo-auth-client/api"
	"github.com/ruteri/holo-auth-client/interfaces"
)

// NotifyClient sends email reports to the host administrator through the
// auth server notify endpoint.
type NotifyClient struct {
	// ServerAddr is the base URL of the auth server
	ServerAddr string

	HTTPClient *http.Client
	Log        *slog.Logger
}

var _ interfaces.Notifier = (*NotifyClient)(nil)

// Notify sends a report and returns the mail provider message id.
func (c *NotifyClient) Notify(ctx context.Context, email string, success bool, data string) (uuid.UUID, error) {
	resp, err := postJSON(ctx, c.HTTPClient, c.ServerAddr+api.NotifyPath, &api.NotifyRequest{
		Email:   email,
		Success: success,
		Data:    data,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("could not request notify endpoint: %w", err)
	}
	defer resp.Body.Close()

	body := readBody(resp)
	if !isSuccess(resp) {
		return uuid.Nil, fmt.Errorf("notify endpoint returned error %s", statusError(resp, body))
	}

	var parsed api.NotifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return uuid.Nil, fmt.Errorf("could not parse notify response: %w", err)
	}

	c.Log.Info("Notification sent", slog.String("email", email), slog.Bool("success", success), slog.String("messageID", parsed.MessageID.String()))
	return parsed.MessageID, nil
}

// NotifyFailure sends a failure report.
func (c *NotifyClient) NotifyFailure(ctx context.Context, email string, data string) error {
	c.Log.Info("Sending failure email", slog.String("email", email))
	_, err := c.Notify(ctx, email, false, data)
	return err
}
