package broadcast

import (
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientWriterDeliversFrames(t *testing.T) {
	server, client := newTestConnPair(t)
	cw := newClientWriter(server, "test", clockwork.NewRealClock())
	t.Cleanup(cw.stop)

	require.True(t, cw.trySend([]byte(`{"type":"pong"}`)))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"pong"}`, string(msg))
}

func TestClientWriterTrySendFullBuffer(t *testing.T) {
	server, _ := newTestConnPair(t)

	// No run goroutine, so nothing drains the buffer.
	cw := &clientWriter{
		connection:  server,
		clock:       clockwork.NewRealClock(),
		sendChannel: make(chan []byte, 1),
		doneChannel: make(chan struct{}),
	}

	assert.True(t, cw.trySend([]byte("one")))
	assert.False(t, cw.trySend([]byte("two")))
}

func TestClientWriterStopGracefulSendsCloseFrame(t *testing.T) {
	server, client := newTestConnPair(t)
	cw := newClientWriter(server, "test", clockwork.NewRealClock())

	cw.stopGraceful("going away")

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := client.ReadMessage()
	var closeErr *ws.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, ws.CloseNormalClosure, closeErr.Code)
	assert.Equal(t, "going away", closeErr.Text)
}

func TestClientWriterStopIdempotent(t *testing.T) {
	server, _ := newTestConnPair(t)
	cw := newClientWriter(server, "test", clockwork.NewRealClock())

	cw.stop()
	cw.stop()
}
