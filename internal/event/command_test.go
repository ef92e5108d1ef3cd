package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandPing(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"type":"ping"}`))
	require.NoError(t, err)
	assert.IsType(t, &Ping{}, cmd)
	assert.Equal(t, CommandPing, cmd.CommandType())
}

func TestParseCommandStartSessionWithConfig(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"type":"start_session","config":{"language":"en","notify":true}}`))
	require.NoError(t, err)

	start, ok := cmd.(*StartSession)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"language": "en", "notify": true}, start.Config)
}

func TestParseCommandStartSessionWithoutConfig(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"type":"start_session"}`))
	require.NoError(t, err)

	start, ok := cmd.(*StartSession)
	require.True(t, ok)
	assert.Nil(t, start.Config)
}

func TestParseCommandStopSession(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"type":"stop_session"}`))
	require.NoError(t, err)
	assert.IsType(t, &StopSession{}, cmd)
}

func TestParseCommandUnknownType(t *testing.T) {
	_, err := ParseCommand([]byte(`{"type":"frobnicate"}`))

	var unknown *UnknownCommandError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "frobnicate", unknown.Type)
	assert.Equal(t, "unknown message type: frobnicate", err.Error())
}

func TestParseCommandMalformedJSON(t *testing.T) {
	_, err := ParseCommand([]byte(`{"not":"json"`))
	require.Error(t, err)

	var unknown *UnknownCommandError
	assert.NotErrorAs(t, err, &unknown)
}

func TestEncodeCommandRoundTrip(t *testing.T) {
	data, err := EncodeCommand(NewStartSession(map[string]any{"source": "test"}))
	require.NoError(t, err)

	cmd, err := ParseCommand(data)
	require.NoError(t, err)

	start, ok := cmd.(*StartSession)
	require.True(t, ok)
	assert.Equal(t, "test", start.Config["source"])
}
