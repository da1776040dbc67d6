package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	prov "github.com/oranolio956/qa-automation-framework-sub006/internal/providers"
	"github.com/rs/zerolog/log"
)

const batchPath = "/v1/accounts/batch"

// Backend provisions accounts through a JSON REST provisioning service.
type Backend struct {
	baseURL string
	token   string
	client  *prov.RetryableHTTPClient
}

func New(cfg prov.Config) *Backend {
	h := cfg.Backends.HTTP
	timeout := time.Duration(h.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Backend{
		baseURL: strings.TrimRight(h.BaseURL, "/"),
		token:   h.Token,
		client:  prov.NewRetryableHTTPClient(timeout, h.Retries),
	}
}

// NewWithClient builds a Backend around an explicit client (tests, custom retry policy).
func NewWithClient(baseURL, token string, client *prov.RetryableHTTPClient) *Backend {
	return &Backend{baseURL: strings.TrimRight(baseURL, "/"), token: token, client: client}
}

type batchRequest struct {
	Count int `json:"count"`
}

func (b *Backend) validate(count int) error {
	if b.baseURL == "" {
		return prov.ValidationError{Field: "base_url", Value: "", Message: "provisioning service URL is required"}
	}
	if count <= 0 {
		return prov.ValidationError{Field: "count", Value: fmt.Sprintf("%d", count), Message: "count must be positive"}
	}
	return nil
}

// CreateMany posts one batch request. Any transport failure or error status
// after retries means the chunk was not attempted.
func (b *Backend) CreateMany(ctx context.Context, count int) (prov.ChunkResult, error) {
	if err := b.validate(count); err != nil {
		return prov.ChunkResult{}, err
	}
	var out prov.ChunkResult
	if err := b.doJSON(ctx, http.MethodPost, b.baseURL+batchPath, batchRequest{Count: count}, &out); err != nil {
		return prov.ChunkResult{}, fmt.Errorf("%w: create batch: %w", prov.ErrCatastrophic, err)
	}
	log.Debug().
		Int("requested", count).
		Int("created", len(out.Created)).
		Int("failed", len(out.Failed)).
		Msg("provisioning service batch returned")
	return out, nil
}

func (b *Backend) doJSON(ctx context.Context, method, url string, body interface{}, out interface{}) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("provisioning api status %d: %s", resp.StatusCode, strings.TrimSpace(string(errorBody)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
