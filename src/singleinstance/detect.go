package singleinstance

import (
	"context"
	"io"
	"net"
	"strconv"
	"time"
)

const probeTimeout = 300 * time.Millisecond

// DetectResidentPort returns the first port in range whose listener answers
// PING with PONG. A ctx deadline shorter than the default probe timeout
// shortens each probe.
func DetectResidentPort(ctx context.Context) (int, bool) {
	timeout := probeTimeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left > 0 && left < timeout {
			timeout = left
		}
	}
	return detectResidentPort(timeout)
}

func detectResidentPort(timeout time.Duration) (int, bool) {
	start, end := getPortRange()
	for port := start; port <= end; port++ {
		if ping(residentAddr(port), timeout) {
			return port, true
		}
	}
	return 0, false
}

func residentAddr(port int) string {
	return net.JoinHostPort(residentHost, strconv.Itoa(port))
}

// ping reports whether addr speaks the resident handshake. Anything else
// listening on the port (or nothing at all) is false.
func ping(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return false
	}
	if _, err := io.WriteString(conn, pingRequest); err != nil {
		return false
	}
	reply := make([]byte, len(pongResponse))
	if _, err := io.ReadFull(conn, reply); err != nil {
		return false
	}
	return string(reply) == pongResponse
}
