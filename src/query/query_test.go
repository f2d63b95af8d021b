package query

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"screen-assist/src/llm"
	"screen-assist/src/screenshot"
)

type MockResponder struct {
	mock.Mock
}

func (m *MockResponder) Respond(ctx context.Context, prompt string, image []byte, engine llm.Engine, model string) (string, error) {
	args := m.Called(ctx, prompt, image, engine, model)
	return args.String(0), args.Error(1)
}

type MockCapturer struct {
	mock.Mock
}

func (m *MockCapturer) Capture(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type panickingResponder struct{}

func (panickingResponder) Respond(context.Context, string, []byte, llm.Engine, string) (string, error) {
	panic("boom")
}

func TestBuildPrompt(t *testing.T) {
	require.Equal(t, "Summarize this", BuildPrompt("Summarize this", ""))

	got := BuildPrompt("Make this concise", "Hello world this is verbose text")
	require.Equal(t, "Edit this: 'Hello world this is verbose text' -> \n\nQuery: Make this concise", got)
}

func TestBuildPromptAlwaysEmbedsBoth(t *testing.T) {
	contexts := []string{"x", "multi\nline", "it's quoted", "  padded  ", "ünïcødé"}
	prompts := []string{"fix", "translate to French", "Make this concise"}
	for _, c := range contexts {
		for _, p := range prompts {
			got := BuildPrompt(p, c)
			require.Contains(t, got, c)
			require.Contains(t, got, p)
			require.NotEqual(t, p, got)
		}
	}
}

func TestHandleUsesSuppliedScreenshotPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.jpg")
	fake := []byte("0123456789")
	require.NoError(t, os.WriteFile(path, fake, 0600))

	responder := &MockResponder{}
	capturer := &MockCapturer{}
	responder.On("Respond", mock.Anything, "Summarize this", fake, llm.EngineCloud, "").
		Return("summary", nil).Once()

	o := NewOrchestrator(responder, capturer)
	resp := o.Handle(context.Background(), NewQuery("Summarize this", "", llm.EngineCloud).WithScreenshotPath(path))

	require.True(t, resp.OK())
	require.Equal(t, "summary", resp.String())
	responder.AssertExpectations(t)
	capturer.AssertNotCalled(t, "Capture", mock.Anything)
}

func TestHandleRewritesPromptWithContext(t *testing.T) {
	responder := &MockResponder{}
	capturer := &MockCapturer{}
	capturer.On("Capture", mock.Anything).Return([]byte("jpeg"), nil).Once()
	want := "Edit this: 'Hello world this is verbose text' -> \n\nQuery: Make this concise"
	responder.On("Respond", mock.Anything, want, []byte("jpeg"), llm.EngineLocal, "llava").
		Return("Hello world.", nil).Once()

	o := NewOrchestrator(responder, capturer)
	q := NewQuery("Make this concise", "Hello world this is verbose text", llm.EngineLocal).WithLocalModel("llava")
	resp := o.Handle(context.Background(), q)

	require.Equal(t, Success("Hello world."), resp)
	responder.AssertExpectations(t)
	capturer.AssertExpectations(t)
	responder.AssertNotCalled(t, "Respond", mock.Anything, "Make this concise", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleUsesInMemoryScreenshot(t *testing.T) {
	responder := &MockResponder{}
	responder.On("Respond", mock.Anything, "q", []byte("bytes"), llm.EngineCloud, "").Return("a", nil).Once()

	o := NewOrchestrator(responder, nil)
	resp := o.Handle(context.Background(), NewQuery("q", "", llm.EngineCloud).WithScreenshot([]byte("bytes")))
	require.True(t, resp.OK())
}

func TestHandleConvertsFailures(t *testing.T) {
	tests := []struct {
		name      string
		query     Query
		setup     func(*MockResponder, *MockCapturer)
		responder Responder
		wantText  string
	}{
		{
			name:  "capture failure",
			query: NewQuery("q", "", llm.EngineCloud),
			setup: func(r *MockResponder, c *MockCapturer) {
				c.On("Capture", mock.Anything).Return(nil, &screenshot.CaptureError{Op: "run screencapture", Err: errors.New("exit status 1")})
			},
			wantText: "Error: screen capture failed (run screencapture): exit status 1",
		},
		{
			name:  "missing screenshot file",
			query: NewQuery("q", "", llm.EngineCloud).WithScreenshotPath("/nonexistent/shot.jpg"),
			setup: func(r *MockResponder, c *MockCapturer) {},
			wantText: "Error: screen capture failed (read /nonexistent/shot.jpg)",
		},
		{
			name:  "configuration error",
			query: NewQuery("q", "", llm.EngineCloud).WithScreenshot([]byte("x")),
			setup: func(r *MockResponder, c *MockCapturer) {
				r.On("Respond", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return("", &llm.ConfigurationError{Setting: "GEMINI_API_KEY", Hint: "Add it in Settings."})
			},
			wantText: "Error: missing GEMINI_API_KEY. Add it in Settings.",
		},
		{
			name:     "empty prompt",
			query:    NewQuery("   ", "", llm.EngineCloud),
			setup:    func(r *MockResponder, c *MockCapturer) {},
			wantText: "Error: prompt is required",
		},
		{
			name:      "panic",
			query:     NewQuery("q", "", llm.EngineCloud).WithScreenshot([]byte("x")),
			responder: panickingResponder{},
			wantText:  "Error: internal error: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &MockResponder{}
			c := &MockCapturer{}
			if tt.setup != nil {
				tt.setup(r, c)
			}
			var responder Responder = r
			if tt.responder != nil {
				responder = tt.responder
			}

			resp := NewOrchestrator(responder, c).Handle(context.Background(), tt.query)

			require.False(t, resp.OK())
			require.Empty(t, resp.Text, "failure never carries text")
			require.True(t, strings.HasPrefix(resp.String(), tt.wantText), "got %q", resp.String())
		})
	}
}

func TestResponseExactlyOne(t *testing.T) {
	ok := Success("hi")
	require.True(t, ok.OK())
	require.Nil(t, ok.Err)

	bad := Failure(nil)
	require.False(t, bad.OK())
	require.Empty(t, bad.Text)
	require.Equal(t, "Error: unknown error", bad.String())
}

func TestQueryCopiesAreIndependent(t *testing.T) {
	buf := []byte("abc")
	base := NewQuery("p", "", llm.EngineCloud)
	withShot := base.WithScreenshot(buf)
	buf[0] = 'z'

	require.Nil(t, base.Screenshot)
	require.Equal(t, []byte("abc"), withShot.Screenshot)
}
