package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/poiesic/docquery/ai"
)

// maxErrorDetail bounds how much of an error body is kept for diagnostics.
const maxErrorDetail = 512

// client is the shared HTTP plumbing for the inference API.
// No request timeout is set: a hung call blocks its request, and retry delays
// are the only waiting the policy defines.
type client struct {
	http  *http.Client
	token string
}

func newClient(token string) *client {
	return &client{
		http:  &http.Client{},
		token: token,
	}
}

// modelURL joins the inference host with a model identifier.
func modelURL(host, model string) string {
	return host + "/models/" + model
}

// post sends a JSON payload to url and returns the raw response body.
// An HTTP 503 is reported as a warming-up failure; any other non-success
// status carries a bounded excerpt of the response body.
func (c *client) post(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, fmt.Errorf("%w: status %d", ai.ErrModelWarmingUp, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorDetail))
		return nil, fmt.Errorf("inference API status %d: %s", resp.StatusCode, detail)
	}

	return io.ReadAll(resp.Body)
}
