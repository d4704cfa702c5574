package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// InfoClient fetches instrument metadata from the exchange's /info
// endpoint. It implements Source.
type InfoClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewInfoClient creates a metadata client for the given API base URL.
func NewInfoClient(baseURL string, timeout time.Duration) *InfoClient {
	return &InfoClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type perpMetaResponse struct {
	Universe []PerpAsset `json:"universe"`
}

type spotMetaResponse struct {
	Universe []SpotPair `json:"universe"`
}

// PerpMeta returns the ordered perpetual universe.
func (c *InfoClient) PerpMeta(ctx context.Context) ([]PerpAsset, error) {
	var resp perpMetaResponse
	if err := c.post(ctx, map[string]string{"type": "meta"}, &resp); err != nil {
		return nil, err
	}
	return resp.Universe, nil
}

// SpotMeta returns the ordered spot universe.
func (c *InfoClient) SpotMeta(ctx context.Context) ([]SpotPair, error) {
	var resp spotMetaResponse
	if err := c.post(ctx, map[string]string{"type": "spotMeta"}, &resp); err != nil {
		return nil, err
	}
	return resp.Universe, nil
}

func (c *InfoClient) post(ctx context.Context, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal info request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/info", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create info request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("info request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read info response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("info request: status %d: %s", resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse info response: %w", err)
	}
	return nil
}
