package servers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPIDFileRoundTrip(t *testing.T) {
	cases := []PIDFile{
		{ModuleID: "lexicon", Host: "127.0.0.1", Port: 10234, PID: 1},
		{ModuleID: "confusibles", Host: "worker-7", Port: 65000, PID: 2},
		{ModuleID: "lm", Host: "node.internal.example.com", Port: 10000, PID: 3},
	}
	for _, c := range cases {
		name := c.FileName()
		moduleID, host, port, err := ParseFileName(name)
		require.NoError(t, err)
		require.Equal(t, c.ModuleID, moduleID)
		require.Equal(t, c.Host, host)
		require.Equal(t, c.Port, port)
	}
}

func TestParseFileNameRejectsMalformed(t *testing.T) {
	_, _, _, err := ParseFileName("onlyonefield.pid")
	require.Error(t, err)
	_, _, _, err = ParseFileName("module.host.notaport.pid")
	require.Error(t, err)
}
