package servers

import (
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"corrigo/internal/wire"
)

func TestWriteListRemoveRoundTrip(t *testing.T) {
	dir, err := NewDirectory(t.TempDir(), nil)
	require.NoError(t, err)

	p := PIDFile{ModuleID: "lexicon", Host: "127.0.0.1", Port: 12345, PID: 999}
	require.NoError(t, dir.Write(p))

	list, err := dir.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, p, list[0])

	require.NoError(t, dir.Remove(p))
	list, err = dir.List()
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestRemoveToleratesMissingFile(t *testing.T) {
	dir, err := NewDirectory(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, dir.Remove(PIDFile{ModuleID: "x", Host: "h", Port: 1, PID: 1}))
}

func TestWipeRemovesEverything(t *testing.T) {
	dir, err := NewDirectory(t.TempDir(), nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, dir.Write(PIDFile{ModuleID: "m", Host: "127.0.0.1", Port: 10000 + i, PID: i + 1}))
	}
	n, err := dir.Wipe()
	require.NoError(t, err)
	require.Equal(t, 3, n)

	list, err := dir.List()
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestFindServersSkipsDeadEntriesSilently(t *testing.T) {
	dir, err := NewDirectory(t.TempDir(), nil)
	require.NoError(t, err)

	// A PID file pointing at a port nothing listens on.
	require.NoError(t, dir.Write(PIDFile{ModuleID: "dead", Host: "127.0.0.1", Port: 19999, PID: 1}))

	// A PID file pointing at a real wire server.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	srv := &wire.Server{Load: func() float64 { return 0.25 }}
	go func() { _ = srv.Serve(ln) }()
	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	require.NoError(t, dir.Write(PIDFile{ModuleID: "alive", Host: host, Port: port, PID: 2}))

	found, err := dir.FindServers()
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "alive", found[0].ModuleID)
	require.Equal(t, 0.25, found[0].Load)
}

func TestHostIdentityIncludesLoopback(t *testing.T) {
	ids := HostIdentity()
	require.True(t, ids["127.0.0.1"])
}

func TestFreePortReturnsBindablePort(t *testing.T) {
	port, err := FreePort()
	require.NoError(t, err)
	require.GreaterOrEqual(t, port, 10000)
	require.Less(t, port, 65000)
}
