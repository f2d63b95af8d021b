package llm

import (
	"fmt"
	"net/http"
	"time"
)

// ConfigurationError means a required setting is missing. It is returned,
// never raised, so callers can show the hint to the user.
type ConfigurationError struct {
	Setting string
	Hint    string
}

func (e *ConfigurationError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("missing %s", e.Setting)
	}
	return fmt.Sprintf("missing %s. %s", e.Setting, e.Hint)
}

// Kind distinguishes transport failures that need different advice.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnreachable
	KindHTTPStatus
	KindTimeout
	KindAPI
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindHTTPStatus:
		return "http_status"
	case KindTimeout:
		return "timeout"
	case KindAPI:
		return "api"
	default:
		return "unknown"
	}
}

// TransportError covers network, HTTP and provider API failures.
type TransportError struct {
	Engine     Engine
	Kind       Kind
	Endpoint   string
	Model      string
	StatusCode int
	Timeout    time.Duration
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Engine == EngineLocal && e.Kind == KindUnreachable:
		return fmt.Sprintf("Ollama Error: could not connect to local Ollama instance at %s. Is `ollama serve` running?", e.Endpoint)
	case e.Engine == EngineLocal && e.Kind == KindHTTPStatus:
		return fmt.Sprintf("Ollama Error: server returned %d %s. Make sure model '%s' exists (try: ollama pull %s).",
			e.StatusCode, http.StatusText(e.StatusCode), e.Model, e.Model)
	case e.Engine == EngineLocal && e.Kind == KindTimeout:
		return fmt.Sprintf("Ollama Error: no answer from model '%s' within %s.", e.Model, e.Timeout)
	case e.Engine == EngineLocal:
		return fmt.Sprintf("Ollama Error: %v", e.Err)
	case e.Kind == KindTimeout:
		return fmt.Sprintf("Gemini Error: request timed out: %v", e.Err)
	default:
		return fmt.Sprintf("Gemini Error: %v", e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// EmptyResponseError means the backend answered but with no usable text.
type EmptyResponseError struct {
	Engine Engine
	Model  string
}

func (e *EmptyResponseError) Error() string {
	if e.Engine == EngineLocal {
		return fmt.Sprintf("Ollama Error: model '%s' returned an empty response.", e.Model)
	}
	return fmt.Sprintf("Gemini Error: model '%s' returned an empty response.", e.Model)
}
