package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/genai"
)

const (
	cloudTemperature  = 0.4
	cloudTimeout      = 90 * time.Second
	cloudMaxRetries   = 2
	cloudInitialDelay = time.Second
	jpegMIME          = "image/jpeg"
)

// generator is the slice of the genai Models service the backend uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// CloudBackend calls the Gemini API.
type CloudBackend struct {
	models       generator
	initialDelay time.Duration
}

// NewCloudBackend builds a Gemini client for apiKey. hc may be nil.
func NewCloudBackend(ctx context.Context, apiKey string, hc *http.Client) (*CloudBackend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &CloudBackend{models: client.Models, initialDelay: cloudInitialDelay}, nil
}

func (b *CloudBackend) Engine() Engine { return EngineCloud }

func (b *CloudBackend) Respond(ctx context.Context, req Request) (string, error) {
	parts := make([]*genai.Part, 0, 2)
	if len(req.Image) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.Image, jpegMIME))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       genai.Ptr[float32](cloudTemperature),
	}

	reqCtx, cancel := context.WithTimeout(ctx, cloudTimeout)
	defer cancel()

	op := func() (*genai.GenerateContentResponse, error) {
		resp, err := b.models.GenerateContent(reqCtx, req.Model, contents, cfg)
		if err != nil && !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return resp, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = b.initialDelay
	if bo.InitialInterval <= 0 {
		bo.InitialInterval = cloudInitialDelay
	}
	resp, err := backoff.RetryWithData(op, backoff.WithContext(backoff.WithMaxRetries(bo, cloudMaxRetries), reqCtx))
	if err != nil {
		return "", cloudError(err, req.Model)
	}

	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		return "", &EmptyResponseError{Engine: EngineCloud, Model: req.Model}
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// retryable reports rate limiting and server-side failures.
func retryable(err error) bool {
	code, ok := apiStatus(err)
	return ok && (code == http.StatusTooManyRequests || code >= 500)
}

func apiStatus(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

func cloudError(err error, model string) error {
	te := &TransportError{Engine: EngineCloud, Kind: KindUnknown, Model: model, Err: err}
	if code, ok := apiStatus(err); ok {
		te.Kind = KindAPI
		te.StatusCode = code
	} else if errors.Is(err, context.DeadlineExceeded) {
		te.Kind = KindTimeout
	}
	return te
}
