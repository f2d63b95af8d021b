//go:build !windows

package llm

import (
	"errors"

	"golang.org/x/sys/unix"
)

func isConnRefused(err error) bool {
	return errors.Is(err, unix.ECONNREFUSED)
}
