package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"screen-assist/src/singleinstance"
)

type stressOptions struct {
	n        int
	prompt   string
	engine   string
	deadline time.Duration
}

type delegateFunc func(ctx context.Context, req singleinstance.Request) (bool, string, error)

type counts struct {
	ok, busy, failed, missing int32
}

func main() {
	opts := &stressOptions{}
	client := singleinstance.NewClient()
	if err := newRootCmd(opts, os.Stdout, client.Delegate).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *stressOptions, out io.Writer, delegate delegateFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-delegate",
		Short:         "Send concurrent queries to a running resident",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.n < 1 {
				return errors.New("--n must be at least 1")
			}
			c := stress(cmd.Context(), *opts, delegate)
			fmt.Fprintf(out, "launched=%d ok=%d busy=%d err=%d no-resident=%d\n",
				opts.n, c.ok, c.busy, c.failed, c.missing)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of concurrent clients")
	cmd.Flags().StringVar(&opts.prompt, "prompt", "Reply with OK", "prompt each client sends")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "engine override (cloud|local)")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 30*time.Second, "per-client timeout")
	return cmd
}

// stress fires opts.n delegations at once. A resident runs one query at a
// time and answers the others with a busy error.
func stress(ctx context.Context, opts stressOptions, delegate delegateFunc) counts {
	if ctx == nil {
		ctx = context.Background()
	}
	var c counts
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			qctx, cancel := context.WithTimeout(ctx, opts.deadline)
			defer cancel()
			req := singleinstance.Request{
				Prompt:  opts.prompt,
				Context: fmt.Sprintf("stress client %d", i),
				Engine:  opts.engine,
			}
			delegated, _, err := delegate(qctx, req)
			switch {
			case !delegated:
				atomic.AddInt32(&c.missing, 1)
			case err != nil && strings.Contains(strings.ToLower(err.Error()), "busy"):
				atomic.AddInt32(&c.busy, 1)
			case err != nil:
				atomic.AddInt32(&c.failed, 1)
			default:
				atomic.AddInt32(&c.ok, 1)
			}
		}(i)
	}
	close(start)
	wg.Wait()
	return c
}
