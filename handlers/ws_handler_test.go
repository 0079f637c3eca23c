package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blogapi/models"
	"blogapi/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFeedServer(t *testing.T, origins []string) (*httptest.Server, *services.HubService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := services.NewHubService(slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := gin.New()
	r.GET("/ws/posts", NewWebSocketHandler(hub, origins).HandlePostFeed)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
	})
	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/posts"
	return websocket.DefaultDialer.Dial(url, header)
}

func readMessage(t *testing.T, conn *websocket.Conn) models.WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg models.WSMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestHandlePostFeed_ReceivesEvents(t *testing.T) {
	srv, hub := newFeedServer(t, []string{"*"})

	conn, _, err := dial(t, srv, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(models.WSMessage{Type: "client_connect"}))
	hello := readMessage(t, conn)
	assert.Equal(t, "client_connected", hello.Type)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(models.EventPostCreated, map[string]string{"id": "65a1f0c2b3d4e5f60718293a"})
	event := readMessage(t, conn)
	assert.Equal(t, models.EventPostCreated, event.Type)
	assert.Equal(t, map[string]interface{}{"id": "65a1f0c2b3d4e5f60718293a"}, event.Data)
}

func TestHandlePostFeed_DisconnectUnregisters(t *testing.T) {
	srv, hub := newFeedServer(t, []string{"*"})

	conn, _, err := dial(t, srv, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandlePostFeed_RejectsUnknownOrigin(t *testing.T) {
	srv, _ := newFeedServer(t, []string{"http://blog.test"})

	_, resp, err := dial(t, srv, http.Header{"Origin": []string{"http://evil.test"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := dial(t, srv, http.Header{"Origin": []string{"http://blog.test"}})
	require.NoError(t, err)
	conn.Close()
}
