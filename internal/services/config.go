// Client for the configuration service that serves method descriptors and
// the combined parse endpoint.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/wavecrest/harmonia/internal/models"
	"github.com/wavecrest/harmonia/internal/shared"
)

// ConfigClient fetches method descriptors and parse results.
//
// Descriptors are fetched fresh per call; they are remote configuration that
// can change under us, so there is deliberately no local descriptor cache.
type ConfigClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewConfigClient creates a configuration service client.
func NewConfigClient(baseURL string, client *http.Client) *ConfigClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &ConfigClient{baseURL: baseURL, httpClient: client}
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// Method fetches the descriptor for (source, function). Any failure mode —
// transport error, non-2xx status, HTML instead of JSON, non-zero envelope
// code, missing data — comes back wrapped in [shared.ErrDescriptor] so the
// caller can proceed straight to the provider fallback.
func (c *ConfigClient) Method(ctx context.Context, src models.Source, function string) (*MethodDescriptor, error) {
	endpoint := fmt.Sprintf("%s/v1/methods/%s/%s", c.baseURL, src, function)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDescriptor, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDescriptor, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrDescriptor, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDescriptor, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDescriptor, err)
	}
	if env.Code != 0 {
		return nil, fmt.Errorf("%w: code %d %s", shared.ErrDescriptor, env.Code, env.Msg)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("%w: no descriptor for %s/%s", shared.ErrDescriptor, src, function)
	}

	var desc MethodDescriptor
	if err := json.Unmarshal(env.Data, &desc); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDescriptor, err)
	}
	return &desc, nil
}

// Parse issues the combined parse call: playable URL, lyric and cover for a
// set of ids in a single upstream hit. The returned payload is raw and
// provider-shaped.
func (c *ConfigClient) Parse(ctx context.Context, src models.Source, ids []string, quality models.Quality) (gjson.Result, error) {
	payload, err := json.Marshal(map[string]any{
		"platform": src,
		"ids":      ids,
		"quality":  quality,
	})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", shared.ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/parse", bytes.NewReader(payload))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", shared.ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", shared.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", shared.ErrUnavailable, err)
	}

	parsed := gjson.ParseBytes(body)
	if parsed.Get("code").Int() != 0 {
		return gjson.Result{}, fmt.Errorf("%w: parse code %d", shared.ErrUnavailable, parsed.Get("code").Int())
	}
	return parsed.Get("data"), nil
}
