package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"screen-assist/src/config"
	"screen-assist/src/llm"
	"screen-assist/src/logutil"
	"screen-assist/src/query"
	"screen-assist/src/screenshot"
	"screen-assist/src/singleinstance"
)

type cliOptions struct {
	prompt     string
	context    string
	screenshot string
	engine     string
	localModel string
	envPath    string
	jsonOutput bool
	verbose    bool
	noDelegate bool
}

// handler answers a query in-process.
type handler interface {
	Handle(ctx context.Context, q query.Query) query.Response
}

// runtimeDeps are the outside world as seen by the command.
type runtimeDeps struct {
	stdout     io.Writer
	stderr     io.Writer
	delegate   func(ctx context.Context, req singleinstance.Request) (bool, string, error)
	newHandler func(snap config.Snapshot) handler
}

func defaultDeps() runtimeDeps {
	return runtimeDeps{
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		delegate: singleinstance.NewClient().Delegate,
		newHandler: func(snap config.Snapshot) handler {
			return query.NewOrchestrator(llm.NewClient(snap), screenshot.New(snap.DebugScreenshotPath))
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := runWithArgs(ctx, normalizeLegacyArgs(os.Args), defaultDeps()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runWithArgs returns an error only for usage problems. Query failures are
// printed as "Error: <message>" and are not errors of the command.
func runWithArgs(ctx context.Context, args []string, deps runtimeDeps) error {
	if len(args) == 0 {
		args = []string{"screen-assist-cli"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts, deps)
	cmd.SetArgs(args[1:])
	cmd.SetOut(deps.stdout)
	cmd.SetErr(deps.stderr)
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(opts *cliOptions, deps runtimeDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-assist-cli",
		Short:         "Ask a vision model about the current screen",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(opts.prompt) == "" {
				return fmt.Errorf("--prompt must not be empty")
			}
			runWithOptions(cmd.Context(), *opts, deps)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.prompt, "prompt", "", "Instruction or question for the model")
	cmd.Flags().StringVar(&opts.context, "context", "", "Selected text to edit (optional)")
	cmd.Flags().StringVar(&opts.screenshot, "screenshot", "", "Use this JPEG instead of capturing the screen")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "Engine: cloud|local (gemini|ollama accepted); defaults to DEFAULT_ENGINE")
	cmd.Flags().StringVar(&opts.localModel, "local-model", "", "Ollama model for the local engine")
	cmd.Flags().StringVar(&opts.envPath, "env", "", "Path to the .env configuration file (highest precedence)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().BoolVar(&opts.noDelegate, "no-delegate", false, "Never forward the query to a running resident")
	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}

type outcome struct {
	resp      query.Response
	engine    llm.Engine
	delegated bool
	elapsed   time.Duration
}

func runWithOptions(ctx context.Context, opts cliOptions, deps runtimeDeps) {
	verbosef := func(format string, args ...any) {
		if opts.verbose {
			fmt.Fprintf(deps.stderr, "[verbose] "+format+"\n", args...)
		}
	}
	if opts.verbose {
		slog.SetDefault(logutil.New(deps.stderr, "debug"))
	} else {
		slog.SetDefault(logutil.New(io.Discard, "error"))
	}

	start := time.Now()
	out := outcome{}
	out.resp, out.engine, out.delegated = answer(ctx, opts, deps, verbosef)
	out.elapsed = time.Since(start)

	if out.resp.OK() {
		verbosef("Answered in %v, %d characters", out.elapsed, len(out.resp.Text))
	} else {
		verbosef("Failed after %v: %v", out.elapsed, out.resp.Err)
	}
	if err := writeOutcome(deps.stdout, out, opts.jsonOutput); err != nil {
		fmt.Fprintf(deps.stderr, "Error: %v\n", err)
	}
}

func answer(ctx context.Context, opts cliOptions, deps runtimeDeps, verbosef func(string, ...any)) (query.Response, llm.Engine, bool) {
	snap, err := config.Load(config.LoadOptions{EnvPathOverride: opts.envPath})
	if err != nil {
		return query.Failure(fmt.Errorf("failed to load configuration: %w", err)), "", false
	}
	verbosef("Config loaded: engine=%s cloud_model=%s local_model=%s api_key=%s",
		snap.DefaultEngine, snap.CloudModel, snap.LocalModel, logutil.RedactKey(snap.APIKey))

	engineName := opts.engine
	if engineName == "" {
		engineName = snap.DefaultEngine
	}
	engine, err := llm.ParseEngine(engineName)
	if err != nil {
		return query.Failure(err), "", false
	}

	shotPath := opts.screenshot
	if shotPath != "" {
		if abs, err := filepath.Abs(shotPath); err == nil {
			shotPath = abs
		}
	}

	if !opts.noDelegate && deps.delegate != nil {
		delegated, text, err := deps.delegate(ctx, singleinstance.Request{
			Prompt:         opts.prompt,
			Context:        opts.context,
			ScreenshotPath: shotPath,
			Engine:         string(engine),
			LocalModel:     opts.localModel,
		})
		if delegated {
			verbosef("Delegated to resident")
			if err != nil {
				return query.Failure(err), engine, true
			}
			return query.Success(text), engine, true
		}
		verbosef("No resident detected, running standalone")
	}

	q := query.NewQuery(opts.prompt, opts.context, engine).WithLocalModel(opts.localModel)
	if shotPath != "" {
		q = q.WithScreenshotPath(shotPath)
	}
	return deps.newHandler(snap).Handle(ctx, q), engine, false
}

// Result is the --json output.
type Result struct {
	Text      string  `json:"text"`
	Error     string  `json:"error,omitempty"`
	Engine    string  `json:"engine,omitempty"`
	Delegated bool    `json:"delegated"`
	Duration  float64 `json:"duration_seconds"`
	CharCount int     `json:"character_count"`
}

func writeOutcome(w io.Writer, out outcome, jsonOutput bool) error {
	if !jsonOutput {
		_, err := fmt.Fprintln(w, out.resp.String())
		return err
	}

	result := Result{
		Text:      out.resp.Text,
		Engine:    string(out.engine),
		Delegated: out.delegated,
		Duration:  out.elapsed.Seconds(),
		CharCount: len(out.resp.Text),
	}
	if !out.resp.OK() {
		result.Error = out.resp.Err.Error()
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	long := []string{"prompt", "context", "screenshot", "engine", "local-model", "env", "json", "verbose", "no-delegate"}
	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
			continue
		}
		for _, name := range long {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "-" + arg
			}
		}
	}

	return normalized
}
