package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"screen-assist/src/config"
	"screen-assist/src/logutil"
)

// Engine selects the backend that turns prompt+image into text.
type Engine string

const (
	EngineCloud Engine = "cloud"
	EngineLocal Engine = "local"
)

const (
	defaultCloudModel = "gemini-2.5-flash"
	defaultLocalModel = "llava"
	defaultLocalURL   = "http://localhost:11434"
)

// SystemInstruction is sent with every request, whatever the engine.
const SystemInstruction = "You are a sophisticated AI assistant seamlessly integrated into the user's environment. " +
	"You are provided with a screenshot of the user's current screen and their query. " +
	"Always provide a beautifully written, highly professional, and perfectly phrased answer. " +
	"Keep your output extremely clean, well-structured, and concise. " +
	"Format your responses using Markdown (bullet points, bold text, code blocks) to make them highly readable. " +
	"If they ask for a rewrite or code, provide the exact snippet directly."

// ParseEngine accepts the engine names and their provider aliases.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cloud", "gemini":
		return EngineCloud, nil
	case "local", "ollama":
		return EngineLocal, nil
	default:
		return "", fmt.Errorf("unknown engine %q (want cloud or local)", s)
	}
}

func (e Engine) String() string { return string(e) }

// Request is one model call.
type Request struct {
	System string
	Prompt string
	Image  []byte
	Model  string
}

// Backend is implemented once per engine.
type Backend interface {
	Engine() Engine
	Respond(ctx context.Context, req Request) (string, error)
}

// CloudFactory builds a cloud backend for an API key.
type CloudFactory func(ctx context.Context, apiKey string) (Backend, error)

// Client dispatches to the engine backends using the latest configuration
// snapshot. Reload is cheap; the cloud backend is rebuilt lazily on the next
// call after the key changes.
type Client struct {
	snap atomic.Pointer[config.Snapshot]

	mu       sync.Mutex
	cloud    Backend
	cloudKey string

	newCloud   CloudFactory
	httpClient *http.Client
}

type Option func(*Client)

// WithCloudFactory replaces the Gemini SDK backend.
func WithCloudFactory(f CloudFactory) Option {
	return func(c *Client) {
		c.newCloud = f
	}
}

// WithHTTPClient sets the client used for the local server.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(snap config.Snapshot, opts ...Option) *Client {
	c := &Client{httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	if c.newCloud == nil {
		c.newCloud = func(ctx context.Context, apiKey string) (Backend, error) {
			return NewCloudBackend(ctx, apiKey, c.httpClient)
		}
	}
	c.Reload(snap)
	return c
}

// Reload installs a new configuration snapshot. Calling it repeatedly with the
// same snapshot is harmless.
func (c *Client) Reload(snap config.Snapshot) {
	c.snap.Store(&snap)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cloud != nil && c.cloudKey != snap.APIKey {
		c.cloud = nil
		c.cloudKey = ""
	}
	slog.Debug("llm client reloaded", "version", snap.Version, "api_key", logutil.RedactKey(snap.APIKey))
}

func (c *Client) Snapshot() config.Snapshot {
	return *c.snap.Load()
}

// Respond sends prompt and image to the selected engine. model only applies to
// the local engine; empty means the configured default.
func (c *Client) Respond(ctx context.Context, prompt string, image []byte, engine Engine, model string) (string, error) {
	snap := c.Snapshot()
	backend, err := c.backend(ctx, snap, engine)
	if err != nil {
		return "", err
	}

	req := Request{
		System: SystemInstruction,
		Prompt: prompt,
		Image:  image,
		Model:  resolveModel(snap, engine, model),
	}

	id := uuid.NewString()
	start := time.Now()
	slog.Info("llm request", "id", id, "engine", engine, "model", req.Model,
		"prompt", logutil.Sanitize(prompt, 100), "image_bytes", len(image))

	text, err := backend.Respond(ctx, req)
	if err != nil {
		slog.Warn("llm request failed", "id", id, "engine", engine, "duration", time.Since(start), "err", err)
		return "", err
	}
	slog.Info("llm response", "id", id, "engine", engine, "duration", time.Since(start), "chars", len(text))
	return text, nil
}

// Ping checks that the local server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.localBackend(c.Snapshot()).Ping(ctx)
}

func (c *Client) backend(ctx context.Context, snap config.Snapshot, engine Engine) (Backend, error) {
	switch engine {
	case EngineCloud:
		return c.cloudBackend(ctx, snap)
	case EngineLocal:
		return c.localBackend(snap), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", engine)
	}
}

func (c *Client) cloudBackend(ctx context.Context, snap config.Snapshot) (Backend, error) {
	if snap.APIKey == "" {
		return nil, &ConfigurationError{Setting: config.APIKeyEnvVar, Hint: "Gemini API key is not set; add it in Settings."}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cloud != nil && c.cloudKey == snap.APIKey {
		return c.cloud, nil
	}
	b, err := c.newCloud(ctx, snap.APIKey)
	if err != nil {
		return nil, &TransportError{Engine: EngineCloud, Kind: KindAPI, Err: err}
	}
	c.cloud = b
	c.cloudKey = snap.APIKey
	return b, nil
}

func (c *Client) localBackend(snap config.Snapshot) *LocalBackend {
	baseURL := snap.LocalURL
	if baseURL == "" {
		baseURL = defaultLocalURL
	}
	timeout := time.Duration(snap.LocalTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultLocalTimeout
	}
	return &LocalBackend{BaseURL: baseURL, Timeout: timeout, HTTPClient: c.httpClient}
}

func resolveModel(snap config.Snapshot, engine Engine, model string) string {
	if engine == EngineCloud {
		if snap.CloudModel != "" {
			return snap.CloudModel
		}
		return defaultCloudModel
	}
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	if snap.LocalModel != "" {
		return snap.LocalModel
	}
	return defaultLocalModel
}
