package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	defaultLocalTimeout = 120 * time.Second
	generatePath        = "/api/generate"
	tagsPath            = "/api/tags"
	maxErrorBody        = 512
)

type generateRequest struct {
	Model  string   `json:"model"`
	System string   `json:"system"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"`
	Stream bool     `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// LocalBackend talks to an Ollama server's generate endpoint, non-streaming.
type LocalBackend struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func (b *LocalBackend) Engine() Engine { return EngineLocal }

func (b *LocalBackend) Respond(ctx context.Context, req Request) (string, error) {
	payload := generateRequest{
		Model:  req.Model,
		System: req.System,
		Prompt: req.Prompt,
		Stream: false,
	}
	if len(req.Image) > 0 {
		payload.Images = []string{base64.StdEncoding.EncodeToString(req.Image)}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	timeout := b.timeout()
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, b.BaseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client().Do(httpReq)
	if err != nil {
		return "", b.classify(err, req.Model, timeout)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &TransportError{
			Engine:     EngineLocal,
			Kind:       KindHTTPStatus,
			Endpoint:   b.BaseURL,
			Model:      req.Model,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if reqCtx.Err() != nil {
			return "", b.classify(reqCtx.Err(), req.Model, timeout)
		}
		return "", &TransportError{Engine: EngineLocal, Endpoint: b.BaseURL, Model: req.Model, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if out.Error != "" {
		return "", &TransportError{Engine: EngineLocal, Endpoint: b.BaseURL, Model: req.Model, Err: errors.New(out.Error)}
	}

	text := strings.TrimSpace(out.Response)
	if text == "" {
		return "", &EmptyResponseError{Engine: EngineLocal, Model: req.Model}
	}
	return text, nil
}

// Ping lists installed models, which only succeeds when the server is up.
func (b *LocalBackend) Ping(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodGet, b.BaseURL+tagsPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := b.client().Do(httpReq)
	if err != nil {
		return b.classify(err, "", 3*time.Second)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &TransportError{Engine: EngineLocal, Kind: KindHTTPStatus, Endpoint: b.BaseURL, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	return nil
}

func (b *LocalBackend) classify(err error, model string, timeout time.Duration) error {
	te := &TransportError{Engine: EngineLocal, Endpoint: b.BaseURL, Model: model, Timeout: timeout, Err: err}
	var netErr net.Error
	switch {
	case isConnRefused(err):
		te.Kind = KindUnreachable
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		te.Kind = KindTimeout
	}
	return te
}

func (b *LocalBackend) timeout() time.Duration {
	if b.Timeout > 0 {
		return b.Timeout
	}
	return defaultLocalTimeout
}

func (b *LocalBackend) client() *http.Client {
	if b.HTTPClient != nil {
		return b.HTTPClient
	}
	return http.DefaultClient
}
