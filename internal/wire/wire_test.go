package wire

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T, h Handler, load LoadFunc) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &Server{Handler: h, Load: load}
	go func() { _ = s.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })
	return ln.Addr().String()
}

func TestLoadProbeRoundTrip(t *testing.T) {
	addr := startTestServer(t, func(b []byte) ([]byte, error) { return []byte("null"), nil }, func() float64 { return 0.42 })
	c, err := Dial(addr, time.Second)
	require.NoError(t, err)
	defer c.Close()

	load, err := c.Probe()
	require.NoError(t, err)
	require.Equal(t, 0.42, load)
}

func TestModuleCallRoundTrip(t *testing.T) {
	addr := startTestServer(t, func(b []byte) ([]byte, error) { return []byte(`{"echo":"` + string(b) + `"}`), nil }, nil)
	c, err := Dial(addr, time.Second)
	require.NoError(t, err)
	defer c.Close()

	resp, err := c.Call([]byte(`"hello"`), time.Second)
	require.NoError(t, err)
	require.Contains(t, string(resp), "hello")
}

func TestMultipleFramesOnOneConnection(t *testing.T) {
	addr := startTestServer(t, func(b []byte) ([]byte, error) { return b, nil }, nil)
	c, err := Dial(addr, time.Second)
	require.NoError(t, err)
	defer c.Close()

	for i := 0; i < 5; i++ {
		resp, err := c.Call([]byte("1"), time.Second)
		require.NoError(t, err)
		require.Equal(t, "1", string(resp))
	}
}

func TestConnectionRefusedClassification(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close()) // nothing listening now

	_, err = Dial(addr, 200*time.Millisecond)
	require.Error(t, err)
	require.Equal(t, ClassConnectionRefused, Classify(err))
}

func TestHandlerPanicDoesNotCrashServer(t *testing.T) {
	addr := startTestServer(t, func(b []byte) ([]byte, error) { panic("boom") }, nil)
	c, err := Dial(addr, time.Second)
	require.NoError(t, err)
	defer c.Close()

	// The panicking connection closes; the listener itself must still be
	// accepting new connections afterwards.
	_, _ = c.Call([]byte("x"), time.Second)

	c2, err := Dial(addr, time.Second)
	require.NoError(t, err)
	defer c2.Close()
}
