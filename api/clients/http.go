package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/ruteri/holo-auth-client/common"
)

const maxResponseBody = 1 << 20

// NewHTTPClient returns the process-wide HTTP client. It is built once in
// main and shared by every authority client.
func NewHTTPClient(timeout time.Duration) *http.Client {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = timeout
	return client
}

func postJSON(ctx context.Context, client *http.Client, url string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("could not encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", common.UserAgent())

	if client == nil {
		client = http.DefaultClient
	}
	return client.Do(req)
}

func isSuccess(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func readBody(resp *http.Response) []byte {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	return body
}

func statusError(resp *http.Response, body []byte) string {
	return fmt.Sprintf("%d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), bytes.TrimSpace(body))
}
