package singleinstance

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

type tcpClient struct {
	// dialTimeout bounds the PING scan, not the query itself.
	dialTimeout time.Duration
}

func newTcpClient() *tcpClient { return &tcpClient{dialTimeout: 300 * time.Millisecond} }

func (c *tcpClient) Delegate(ctx context.Context, req Request) (bool, string, error) {
	port, ok := detectResidentPort(c.dialTimeout)
	if !ok {
		return false, "", nil
	}
	addr := residentAddr(port)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false, "", nil
	}
	defer conn.Close()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	payload, err := json.Marshal(req)
	if err != nil {
		return true, "", fmt.Errorf("encode query: %w", err)
	}
	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(queryRequest); err != nil {
		return true, "", err
	}
	if _, err := w.Write(append(payload, '\n')); err != nil {
		return true, "", err
	}
	if err := w.Flush(); err != nil {
		return true, "", err
	}

	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return true, "", ctxErr
		}
		return true, "", fmt.Errorf("read resident status: %w", err)
	}
	body, _ := io.ReadAll(br)
	switch status {
	case successStatus:
		return true, string(body), nil
	case errorStatus:
		return true, "", errors.New(string(body))
	default:
		return true, "", fmt.Errorf("unexpected resident status %q", status)
	}
}
