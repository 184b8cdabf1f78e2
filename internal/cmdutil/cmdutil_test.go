package cmdutil

import (
	"bytes"
	"testing"

	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/require"
)

func TestLogLevel(t *testing.T) {
	var ll LogLevel
	require.Equal(t, "info", ll.String())

	require.NoError(t, ll.Set("DEBUG"))
	require.Equal(t, "debug", ll.String())
	require.NotNil(t, ll.FilterOption())

	require.Error(t, ll.Set("verbose"))
	require.Equal(t, level.DebugValue().String(), ll.String(), "failed Set must not change the level")
}

func TestNewLogger(t *testing.T) {
	var (
		buf bytes.Buffer
		ll  LogLevel
	)
	require.NoError(t, ll.Set("warn"))

	l := NewLogger(&buf, ll)
	level.Info(l).Log("msg", "hidden")
	level.Warn(l).Log("msg", "shown")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "msg=shown")
	require.Contains(t, out, "level=warn")
}

func TestServerAddr(t *testing.T) {
	t.Setenv(EnvServer, "")
	t.Setenv(EnvServerPort, "")
	require.Equal(t, "127.0.0.1:15440", ServerAddr())
	require.Equal(t, "tcp://0.0.0.0:15440", ListenAddr())

	t.Setenv(EnvServer, "10.0.0.5")
	t.Setenv(EnvServerPort, "9000")
	require.Equal(t, "10.0.0.5:9000", ServerAddr())
	require.Equal(t, "tcp://0.0.0.0:9000", ListenAddr())

	t.Setenv(EnvServer, "::1")
	require.Equal(t, "[::1]:9000", ServerAddr())
}

func TestEnvBool(t *testing.T) {
	t.Setenv("RFS_TEST_BOOL", "true")
	require.True(t, EnvBool("RFS_TEST_BOOL"))

	t.Setenv("RFS_TEST_BOOL", "nope")
	require.False(t, EnvBool("RFS_TEST_BOOL"))

	require.Equal(t, "fallback", EnvOr("RFS_TEST_UNSET_VARIABLE", "fallback"))
}
