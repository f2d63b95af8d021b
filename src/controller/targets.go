package controller

import (
	"log/slog"

	"screen-assist/src/query"
	"screen-assist/src/singleinstance"
)

// resultTarget is where a finished query goes. Success and failure share the
// same path: the rendered response.
type resultTarget interface {
	deliver(resp query.Response)
	Close()
}

type overlayTarget struct {
	surface Surface
	clip    Clipboard
}

func (t overlayTarget) deliver(resp query.Response) {
	text := resp.String()
	t.surface.ShowResult(text)
	if err := t.clip.Copy(text); err != nil {
		slog.Warn("could not copy answer to clipboard", "err", err)
	}
}

func (overlayTarget) Close() {}

type delegatedTarget struct {
	conn singleinstance.Conn
}

func (t delegatedTarget) deliver(resp query.Response) {
	var err error
	if resp.OK() {
		err = t.conn.RespondSuccess(resp.Text)
	} else {
		err = t.conn.RespondError(resp.Err.Error())
	}
	if err != nil {
		slog.Warn("could not answer delegated query", "err", err)
	}
}

func (t delegatedTarget) Close() {
	if t.conn != nil {
		_ = t.conn.Close()
	}
}
