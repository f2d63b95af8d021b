package singleinstance

// This file defines the API for single-instance ownership and CLI query delegation.

import (
	"context"
	"errors"
)

var (
	// ErrAlreadyRunning is returned by Server.Start when another resident answers PING.
	ErrAlreadyRunning = errors.New("another instance is already running")
	// ErrClosed is returned by Server.Next after Close.
	ErrClosed = errors.New("server closed")
)

// Server owns the TCP endpoint and answers delegated queries.
type Server interface {
	// Start begins listening on the first free port of the configured range.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted query as a Conn, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn represents one client connection and exposes request + response API.
type Conn interface {
	Request() Request
	RespondSuccess(text string) error
	// RespondError sends an error with human-readable message.
	RespondError(msg string) error
	Close() error
}

// Request is a query forwarded by the CLI.
type Request struct {
	Prompt         string `json:"prompt" validate:"required"`
	Context        string `json:"context,omitempty"`
	ScreenshotPath string `json:"screenshot_path,omitempty"`
	Engine         string `json:"engine,omitempty" validate:"omitempty,oneof=cloud local gemini ollama"`
	LocalModel     string `json:"local_model,omitempty"`
}

// Client attempts to delegate a query to a resident server.
type Client interface {
	// Delegate scans the port range, performs the handshake and forwards req.
	// If no resident is found, returns delegated=false, err=nil.
	Delegate(ctx context.Context, req Request) (delegated bool, text string, err error)
}

// NewServer returns TCP implementation.
func NewServer() Server { return newTcpServer() }

// NewClient returns TCP implementation.
func NewClient() Client { return newTcpClient() }
