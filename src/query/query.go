package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"screen-assist/src/llm"
	"screen-assist/src/screenshot"
)

const editTemplate = "Edit this: '%s' -> \n\nQuery: %s"

var errEmptyPrompt = errors.New("prompt is required")

// Query is one user interaction. Methods return modified copies.
type Query struct {
	Prompt         string
	Context        string
	ScreenshotPath string
	Screenshot     []byte
	Engine         llm.Engine
	LocalModel     string
}

func NewQuery(prompt, context string, engine llm.Engine) Query {
	return Query{Prompt: prompt, Context: context, Engine: engine}
}

// WithScreenshotPath makes the orchestrator read the image from path instead
// of capturing.
func (q Query) WithScreenshotPath(path string) Query {
	q.ScreenshotPath = path
	return q
}

// WithScreenshot supplies already-encoded image bytes.
func (q Query) WithScreenshot(data []byte) Query {
	q.Screenshot = append([]byte(nil), data...)
	return q
}

func (q Query) WithLocalModel(model string) Query {
	q.LocalModel = model
	return q
}

// Response carries either Text or Err, never both.
type Response struct {
	Text string
	Err  error
}

func Success(text string) Response { return Response{Text: text} }

func Failure(err error) Response {
	if err == nil {
		err = errors.New("unknown error")
	}
	return Response{Err: err}
}

func (r Response) OK() bool { return r.Err == nil }

// String renders the response for display; failures read "Error: <message>".
func (r Response) String() string {
	if r.Err != nil {
		return "Error: " + r.Err.Error()
	}
	return r.Text
}

// BuildPrompt wraps the user's instruction around highlighted text.
func BuildPrompt(prompt, context string) string {
	if context == "" {
		return prompt
	}
	return fmt.Sprintf(editTemplate, context, prompt)
}

// Responder is the model client.
type Responder interface {
	Respond(ctx context.Context, prompt string, image []byte, engine llm.Engine, model string) (string, error)
}

// Orchestrator turns a Query into exactly one Response.
type Orchestrator struct {
	llm     Responder
	capture screenshot.Capturer
}

func NewOrchestrator(responder Responder, capturer screenshot.Capturer) *Orchestrator {
	return &Orchestrator{llm: responder, capture: capturer}
}

// Handle never returns an error and never panics; failures come back as a
// Response with Err set.
func (o *Orchestrator) Handle(ctx context.Context, q Query) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("query panicked", "panic", r)
			resp = Failure(fmt.Errorf("internal error: %v", r))
		}
	}()

	if strings.TrimSpace(q.Prompt) == "" {
		return Failure(errEmptyPrompt)
	}

	image, err := o.image(ctx, q)
	if err != nil {
		return Failure(err)
	}

	text, err := o.llm.Respond(ctx, BuildPrompt(q.Prompt, q.Context), image, q.Engine, q.LocalModel)
	if err != nil {
		return Failure(err)
	}
	return Success(text)
}

func (o *Orchestrator) image(ctx context.Context, q Query) ([]byte, error) {
	switch {
	case len(q.Screenshot) > 0:
		return q.Screenshot, nil
	case q.ScreenshotPath != "":
		slog.Debug("using supplied screenshot", "path", q.ScreenshotPath)
		return screenshot.Load(q.ScreenshotPath)
	case o.capture == nil:
		return nil, &screenshot.CaptureError{Op: "capture", Err: errors.New("no screen capturer configured")}
	default:
		return o.capture.Capture(ctx)
	}
}
