package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"screen-assist/src/config"
	"screen-assist/src/llm"
	"screen-assist/src/logutil"
	"screen-assist/src/query"
	"screen-assist/src/singleinstance"
	"screen-assist/src/worker"
)

// ErrBusy is reported when a query arrives while another one is outstanding.
var ErrBusy = errors.New("Busy, please retry")

// State is the overlay lifecycle.
type State int

const (
	StateIdle State = iota
	StateCapturingContext
	StateAwaitingInput
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturingContext:
		return "capturing-context"
	case StateAwaitingInput:
		return "awaiting-input"
	case StateSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Surface is the overlay window. All calls come from the loop goroutine.
type Surface interface {
	ShowReady(context string)
	ShowBusy()
	ShowResult(text string)
	Hide()
	ApplyTheme(name string)
}

// Clipboard copies the current selection and stores results.
type Clipboard interface {
	CopySelection() string
	Copy(text string) error
	Inject(text string) error
}

// SettingsStore persists settings and returns the new snapshot.
type SettingsStore interface {
	Save(config.Settings) (config.Snapshot, error)
}

// Reloader receives new configuration snapshots.
type Reloader interface {
	Reload(config.Snapshot)
}

// Handler answers one query.
type Handler interface {
	Handle(ctx context.Context, q query.Query) query.Response
}

// Submitter runs at most one task at a time.
type Submitter interface {
	Submit(name string, task worker.Task) bool
}

// Indicator mirrors the busy state somewhere else, e.g. the tray tooltip.
type Indicator interface {
	SetBusy(busy bool)
}

type Options struct {
	Surface   Surface
	Clipboard Clipboard
	Store     SettingsStore
	LLM       Reloader
	Handler   Handler
	Worker    Submitter
	Indicator Indicator
	// Server, when set, feeds delegated CLI queries into the loop.
	Server singleinstance.Server
	Config config.Snapshot
}

type submission struct {
	prompt string
	engine llm.Engine
}

type result struct {
	resp   query.Response
	target resultTarget
}

// Loop is the single-threaded coordinator for hotkey, tray, overlay and
// delegated CLI flows.
type Loop struct {
	opts Options

	state         State
	visible       bool
	context       string
	lastResult    string
	defaultEngine llm.Engine
	localModel    string

	activateCh chan struct{}
	submitCh   chan submission
	escapeCh   chan struct{}
	insertCh   chan struct{}
	settingsCh chan config.Settings
	results    chan result
	stateCh    chan chan State
}

// New creates a loop. Options.Surface, Clipboard, Handler and Worker are
// required.
func New(opts Options) *Loop {
	engine, err := llm.ParseEngine(opts.Config.DefaultEngine)
	if err != nil {
		engine = llm.EngineCloud
	}
	return &Loop{
		opts:          opts,
		defaultEngine: engine,
		localModel:    opts.Config.LocalModel,
		activateCh:    make(chan struct{}, 4),
		submitCh:      make(chan submission, 1),
		escapeCh:      make(chan struct{}, 1),
		insertCh:      make(chan struct{}, 1),
		settingsCh:    make(chan config.Settings, 1),
		results:       make(chan result, 1),
		stateCh:       make(chan chan State),
	}
}

// Activate posts a hotkey or tray activation. Safe from any goroutine.
func (l *Loop) Activate() {
	select {
	case l.activateCh <- struct{}{}:
	default:
	}
}

// Submit posts the overlay input. engine may be empty for the default.
func (l *Loop) Submit(prompt string, engine llm.Engine) {
	select {
	case l.submitCh <- submission{prompt: prompt, engine: engine}:
	default:
		slog.Debug("submit dropped, previous submit still pending")
	}
}

// Escape posts a dismiss request.
func (l *Loop) Escape() {
	select {
	case l.escapeCh <- struct{}{}:
	default:
	}
}

// Insert pastes the last answer into the frontmost application.
func (l *Loop) Insert() {
	select {
	case l.insertCh <- struct{}{}:
	default:
	}
}

// SaveSettings posts a settings change.
func (l *Loop) SaveSettings(s config.Settings) {
	l.settingsCh <- s
}

// State returns the current state as seen by the loop goroutine. It blocks
// until the loop answers or ctx is done.
func (l *Loop) State(ctx context.Context) (State, error) {
	reply := make(chan State, 1)
	select {
	case l.stateCh <- reply:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Run processes events until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	var reqCh chan singleinstance.Conn
	if l.opts.Server != nil {
		reqCh = make(chan singleinstance.Conn, 4)
		go func() {
			defer close(reqCh)
			for {
				conn, err := l.opts.Server.Next(ctx)
				if err != nil {
					return
				}
				reqCh <- conn
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.activateCh:
			l.handleActivate()
		case s := <-l.submitCh:
			l.handleSubmit(s)
		case <-l.escapeCh:
			l.handleEscape()
		case <-l.insertCh:
			l.handleInsert()
		case s := <-l.settingsCh:
			l.handleSettings(s)
		case conn, ok := <-reqCh:
			if !ok {
				reqCh = nil
				continue
			}
			l.handleConn(conn)
		case res := <-l.results:
			l.handleResult(res)
		case reply := <-l.stateCh:
			reply <- l.state
		}
	}
}

func (l *Loop) setState(s State) {
	if l.state != s {
		slog.Debug("controller state", "from", l.state.String(), "to", s.String())
	}
	l.state = s
}

func (l *Loop) setBusy(b bool) {
	if l.opts.Indicator != nil {
		l.opts.Indicator.SetBusy(b)
	}
}

func (l *Loop) handleActivate() {
	if l.state == StateSubmitted {
		slog.Info("activation ignored, query in flight")
		return
	}
	l.setState(StateCapturingContext)
	l.context = strings.TrimSpace(l.opts.Clipboard.CopySelection())
	slog.Debug("captured selection", "chars", len(l.context), "preview", logutil.Sanitize(l.context, 50))
	l.opts.Surface.ShowReady(l.context)
	l.visible = true
	l.setState(StateAwaitingInput)
}

// acceptsInput is true while the overlay takes a prompt: right after
// activation, and again for follow-ups once an answer is shown.
func (l *Loop) acceptsInput() bool {
	return l.state == StateAwaitingInput || (l.state == StateIdle && l.visible)
}

func (l *Loop) handleSubmit(s submission) {
	if !l.acceptsInput() {
		slog.Debug("submit ignored", "state", l.state.String())
		return
	}
	prompt := strings.TrimSpace(s.prompt)
	if prompt == "" {
		return
	}
	engine := s.engine
	if engine == "" {
		engine = l.defaultEngine
	}

	q := query.NewQuery(prompt, l.context, engine).WithLocalModel(l.localModel)
	// Context belongs to the activation; follow-ups ask about the screen only.
	l.context = ""

	l.setState(StateSubmitted)
	l.opts.Surface.ShowBusy()
	l.setBusy(true)
	if !l.start("overlay query", q, overlayTarget{surface: l.opts.Surface, clip: l.opts.Clipboard}) {
		l.setBusy(false)
		l.opts.Surface.ShowResult(query.Failure(ErrBusy).String())
		l.setState(StateAwaitingInput)
	}
}

func (l *Loop) handleEscape() {
	switch {
	case l.state == StateSubmitted:
		// The answer still lands in the clipboard; only the window goes away.
		l.opts.Surface.Hide()
		l.visible = false
	case l.visible:
		l.opts.Surface.Hide()
		l.visible = false
		l.context = ""
		l.setState(StateIdle)
	}
}

func (l *Loop) handleInsert() {
	if l.state == StateSubmitted || l.lastResult == "" {
		return
	}
	l.opts.Surface.Hide()
	l.visible = false
	l.setState(StateIdle)
	if err := l.opts.Clipboard.Inject(l.lastResult); err != nil {
		slog.Warn("insert failed", "err", err)
	}
}

func (l *Loop) handleSettings(s config.Settings) {
	if l.opts.Store == nil {
		slog.Warn("settings save requested without a store")
		return
	}
	snap, err := l.opts.Store.Save(s)
	if err != nil {
		slog.Error("settings save failed", "err", err)
		l.opts.Surface.ShowResult(query.Failure(fmt.Errorf("could not save settings: %w", err)).String())
		return
	}
	slog.Info("settings saved", "version", snap.Version, "api_key", logutil.RedactKey(snap.APIKey), "theme", snap.Theme)
	if l.opts.LLM != nil {
		l.opts.LLM.Reload(snap)
	}
	l.opts.Surface.ApplyTheme(snap.Theme)
}

func (l *Loop) handleConn(conn singleinstance.Conn) {
	target := delegatedTarget{conn: conn}
	req := conn.Request()
	if l.state == StateSubmitted {
		target.deliver(query.Failure(ErrBusy))
		target.Close()
		return
	}

	engine := l.defaultEngine
	if req.Engine != "" {
		parsed, err := llm.ParseEngine(req.Engine)
		if err != nil {
			target.deliver(query.Failure(err))
			target.Close()
			return
		}
		engine = parsed
	}
	model := req.LocalModel
	if model == "" {
		model = l.localModel
	}
	q := query.NewQuery(req.Prompt, req.Context, engine).WithLocalModel(model)
	if req.ScreenshotPath != "" {
		q = q.WithScreenshotPath(req.ScreenshotPath)
	}

	l.setBusy(true)
	if !l.start("delegated query", q, target) {
		l.setBusy(false)
		target.deliver(query.Failure(ErrBusy))
		target.Close()
	}
}

func (l *Loop) start(name string, q query.Query, target resultTarget) bool {
	return l.opts.Worker.Submit(name, func(ctx context.Context) {
		resp := l.opts.Handler.Handle(ctx, q)
		select {
		case l.results <- result{resp: resp, target: target}:
		case <-ctx.Done():
			target.Close()
		}
	})
}

func (l *Loop) handleResult(res result) {
	defer l.setBusy(false)
	defer res.target.Close()

	if res.resp.OK() {
		slog.Info("query answered", "chars", len(res.resp.Text))
	} else {
		slog.Warn("query failed", "err", res.resp.Err)
	}

	if _, overlay := res.target.(overlayTarget); overlay {
		l.lastResult = res.resp.String()
		l.setState(StateIdle)
	}
	res.target.deliver(res.resp)
}
