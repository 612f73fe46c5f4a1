package watch

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ReloadMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg ReloadMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestReloadServerBroadcast(t *testing.T) {
	rs := NewReloadServer()
	srv := httptest.NewServer(rs)
	defer srv.Close()
	defer rs.Close()

	a, b := dial(t, srv), dial(t, srv)
	require.Eventually(t, func() bool { return rs.ConnectionCount() == 2 }, time.Second, 10*time.Millisecond)

	rs.NotifyReload([]string{"people.yaml"}, 3)
	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		assert.Equal(t, MessageReload, msg.Type)
		assert.Equal(t, []string{"people.yaml"}, msg.Files)
		assert.Equal(t, 3, msg.Classes)
		assert.NotZero(t, msg.Timestamp)
	}

	rs.NotifyError([]string{"people.yaml"}, errors.New("inheritance cycle"))
	msg := readMessage(t, a)
	assert.Equal(t, MessageError, msg.Type)
	assert.Equal(t, "inheritance cycle", msg.Error)
}

func TestReloadServerClientLeaves(t *testing.T) {
	rs := NewReloadServer()
	srv := httptest.NewServer(rs)
	defer srv.Close()
	defer rs.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return rs.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return rs.ConnectionCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestReloadServerRejectsForeignOrigin(t *testing.T) {
	rs := NewReloadServer()
	srv := httptest.NewServer(rs)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := map[string][]string{"Origin": {"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestReloadServerClose(t *testing.T) {
	rs := NewReloadServer()
	srv := httptest.NewServer(rs)
	defer srv.Close()

	dial(t, srv)
	require.Eventually(t, func() bool { return rs.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	rs.Close()
	assert.Zero(t, rs.ConnectionCount())
	rs.NotifyReload(nil, 0)
}
