package singleinstance

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	residentHost  = "127.0.0.1"
	pingRequest   = "PING\n"
	pongResponse  = "PONG\n"
	queryRequest  = "QUERY\n"
	successStatus = "SUCCESS\n"
	errorStatus   = "ERROR\n"

	handshakeTimeout = 3 * time.Second
)

var requestValidator = validator.New(validator.WithRequiredStructEnabled())

// tcpServer implements Server over TCP loopback.
type tcpServer struct {
	mu        sync.Mutex
	lis       net.Listener
	incoming  chan *tcpConn
	done      chan struct{}
	closeOnce sync.Once
	port      int
}

func newTcpServer() *tcpServer {
	return &tcpServer{incoming: make(chan *tcpConn, 8), done: make(chan struct{})}
}

// Start binds the first free port of the configured range. If a resident
// already answers on a port of the range, Start fails with ErrAlreadyRunning.
func (s *tcpServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		return nil
	}
	start, end := getPortRange()
	var lastErr error
	for port := start; port <= end; port++ {
		addr := residentAddr(port)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			if ping(addr, 300*time.Millisecond) {
				slog.Warn("singleinstance: resident already listening", "addr", addr)
				return fmt.Errorf("%w on %s", ErrAlreadyRunning, addr)
			}
			lastErr = err
			continue
		}
		s.lis = lis
		s.port = port
		slog.Info("singleinstance: listening", "addr", addr)
		go s.acceptLoop(ctx, lis)
		return nil
	}
	return fmt.Errorf("singleinstance: no free port in %d-%d: %w", start, end, lastErr)
}

// Port returns the bound port (0 if not started).
func (s *tcpServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *tcpServer) acceptLoop(ctx context.Context, lis net.Listener) {
	for {
		c, err := lis.Accept()
		if err != nil {
			return
		}
		go s.handshake(ctx, c)
	}
}

func (s *tcpServer) handshake(ctx context.Context, c net.Conn) {
	remote := c.RemoteAddr().String()
	_ = c.SetDeadline(time.Now().Add(handshakeTimeout))
	br := bufio.NewReader(c)
	bw := bufio.NewWriter(c)
	line, _ := br.ReadString('\n')

	switch line {
	case pingRequest:
		slog.Debug("singleinstance: PING -> PONG", "remote", remote)
		_, _ = bw.WriteString(pongResponse)
		_ = bw.Flush()
		_ = c.Close()
		return
	case queryRequest:
	default:
		slog.Warn("singleinstance: unknown request", "remote", remote, "line", line)
		tc := &tcpConn{c: c, w: bw}
		_ = tc.RespondError(fmt.Sprintf("unknown request %q", line))
		_ = c.Close()
		return
	}

	payload, err := br.ReadBytes('\n')
	if err != nil && len(payload) == 0 {
		slog.Warn("singleinstance: missing query payload", "remote", remote, "err", err)
		_ = c.Close()
		return
	}
	tc := &tcpConn{c: c, w: bw}
	if err := json.Unmarshal(payload, &tc.r); err != nil {
		_ = tc.RespondError(fmt.Sprintf("invalid query payload: %v", err))
		_ = c.Close()
		return
	}
	if err := requestValidator.Struct(&tc.r); err != nil {
		_ = tc.RespondError(fmt.Sprintf("invalid query: %v", err))
		_ = c.Close()
		return
	}
	// The query itself may take as long as the model needs.
	_ = c.SetDeadline(time.Time{})
	slog.Info("singleinstance: query received", "remote", remote, "engine", tc.r.Engine, "prompt_len", len(tc.r.Prompt))

	select {
	case s.incoming <- tc:
	case <-s.done:
		_ = tc.RespondError("resident is shutting down")
		_ = c.Close()
	case <-ctx.Done():
		_ = c.Close()
	}
}

func (s *tcpServer) Next(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrClosed
	case tc := <-s.incoming:
		return tc, nil
	}
}

func (s *tcpServer) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.lis != nil {
			_ = s.lis.Close()
			s.lis = nil
		}
	})
	return nil
}

type tcpConn struct {
	c net.Conn
	r Request
	w *bufio.Writer
}

func (tc *tcpConn) Request() Request { return tc.r }

func (tc *tcpConn) RespondSuccess(text string) error {
	if _, err := tc.w.WriteString(successStatus + text); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) RespondError(msg string) error {
	if _, err := tc.w.WriteString(errorStatus + msg); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) Close() error { return tc.c.Close() }
