package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"screen-assist/src/clipboard"
	"screen-assist/src/config"
	"screen-assist/src/controller"
	"screen-assist/src/hotkey"
	"screen-assist/src/llm"
	"screen-assist/src/logutil"
	"screen-assist/src/overlay"
	"screen-assist/src/query"
	"screen-assist/src/screenshot"
	"screen-assist/src/singleinstance"
	"screen-assist/src/tray"
	"screen-assist/src/worker"
)

const (
	appID            = "com.screenassist.resident"
	localPingTimeout = 3 * time.Second
)

var _ controller.Surface = (*overlay.Window)(nil)

type mainOptions struct {
	envPath string
	verbose bool
}

func main() {
	enableDPIAwareness()

	opts := &mainOptions{}
	if err := newRootCmd(opts).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-assist",
		Short:         "Menu-bar assistant that answers questions about your screen",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(opts)
		},
	}
	cmd.Flags().StringVar(&opts.envPath, "env", "", "Path to the .env file")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")
	return cmd
}

type pinger interface {
	Ping(ctx context.Context) error
}

// checkLocalEngine warns when the local engine is the default but its
// server is not answering. The resident starts either way.
func checkLocalEngine(ctx context.Context, p pinger, snap config.Snapshot) error {
	engine, err := llm.ParseEngine(snap.DefaultEngine)
	if err != nil || engine != llm.EngineLocal {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, localPingTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		slog.Warn("local engine unreachable", "url", snap.LocalURL, "error", err)
		return err
	}
	return nil
}

func run(opts *mainOptions) error {
	store, err := config.Open(config.LoadOptions{EnvPathOverride: opts.envPath})
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	snap := store.Current()
	logutil.Setup(logutil.Options{
		EnableFileLogging: snap.EnableFileLogging,
		Verbose:           opts.verbose,
		Level:             snap.LogLevel,
		Dir:               config.ExecutableDir(),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	server := singleinstance.NewServer()
	if err := server.Start(ctx); err != nil {
		if errors.Is(err, singleinstance.ErrAlreadyRunning) {
			return errors.New("screen-assist is already running")
		}
		return fmt.Errorf("start resident server: %w", err)
	}
	defer server.Close()
	slog.Info("resident listening", "port", server.Port(), "env", store.Path())

	if snap.APIKey == "" {
		slog.Warn("GEMINI_API_KEY is not set; cloud queries will fail until it is saved in Settings")
	}
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable", "error", err)
	}

	client := llm.NewClient(snap)
	go func() { _ = checkLocalEngine(ctx, client, snap) }()

	pool := worker.New(ctx)
	defer pool.Close()

	a := app.NewWithID(appID)

	var loop *controller.Loop
	win := overlay.New(a, overlay.Actions{
		Submit: func(prompt string, engine llm.Engine) { loop.Submit(prompt, engine) },
		Escape: func() { loop.Escape() },
		Insert: func() { loop.Insert() },
		// The form closes on the UI thread; the send must not hold it.
		SaveSettings: func(s config.Settings) { go loop.SaveSettings(s) },
		Current:      store.Current,
	}, snap)

	t := tray.New(tray.Config{
		Hotkey:     snap.Hotkey,
		OnAsk:      func() { loop.Activate() },
		OnSettings: win.OpenSettings,
		OnQuit:     cancel,
	})

	loop = controller.New(controller.Options{
		Surface:   win,
		Clipboard: clipboard.NewSystem(),
		Store:     store,
		LLM:       client,
		Handler:   query.NewOrchestrator(client, screenshot.New(snap.DebugScreenshotPath)),
		Worker:    pool,
		Indicator: t,
		Server:    server,
		Config:    snap,
	})

	t.Start(a)
	t.SetResidentPort(server.Port())

	if err := hotkey.Listen(ctx, snap.Hotkey, loop.Activate); err != nil {
		slog.Error("hotkey unavailable; use the tray menu", "hotkey", snap.Hotkey, "error", err)
	}

	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("controller stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		fyne.Do(a.Quit)
	}()

	slog.Info("screen-assist ready", "hotkey", snap.Hotkey, "engine", snap.DefaultEngine)
	a.Run()
	cancel()
	slog.Info("screen-assist exiting")
	return nil
}
