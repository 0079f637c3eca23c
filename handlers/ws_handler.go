package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"blogapi/logger"
	"blogapi/models"
	"blogapi/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type WebSocketHandler struct {
	hubService *services.HubService
	upgrader   websocket.Upgrader
}

// NewWebSocketHandler accepts upgrades from the given origins; "*" allows any.
func NewWebSocketHandler(hubService *services.HubService, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hubService: hubService,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// HandlePostFeed godoc
// @Summary  Live post feed
// @Tags     posts
// @Router   /ws/posts [get]
func (wh *WebSocketHandler) HandlePostFeed(c *gin.Context) {
	log := logger.FromContext(c.Request.Context())

	conn, err := wh.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := models.NewClient(wh.hubService.GetHub(), conn)
	log = log.With("client_id", client.ID)
	log.Info("feed client connected")

	// replies carries direct answers from the read side; only writePump
	// writes to the connection.
	replies := make(chan []byte, 1)
	writerDone := make(chan struct{})

	if !wh.hubService.Register(client) {
		log.Warn("feed hub stopped, closing connection")
		conn.Close()
		return
	}
	go wh.writePump(client, replies, writerDone, log)
	go wh.readPump(client, replies, writerDone, log)
}

func (wh *WebSocketHandler) readPump(client *models.Client, replies chan<- []byte, writerDone <-chan struct{}, log *slog.Logger) {
	defer func() {
		log.Info("feed client disconnecting")
		wh.hubService.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("unexpected websocket close", "error", err)
			}
			return
		}

		var wsMessage models.WSMessage
		if err := json.Unmarshal(message, &wsMessage); err != nil {
			log.Debug("ignoring malformed feed message", "error", err)
			continue
		}

		switch wsMessage.Type {
		case "client_connect":
			reply, err := json.Marshal(models.WSMessage{
				Type: "client_connected",
				Data: map[string]string{"client_id": client.ID},
			})
			if err != nil {
				log.Error("marshal client_connected", "error", err)
				continue
			}
			select {
			case replies <- reply:
			case <-writerDone:
				return
			default:
				log.Debug("reply queue full, dropping client_connected")
			}
		default:
			log.Debug("unknown feed message type", "type", wsMessage.Type)
		}
	}
}

func (wh *WebSocketHandler) writePump(client *models.Client, replies <-chan []byte, writerDone chan<- struct{}, log *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		close(writerDone)
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			if !ok {
				_ = wh.write(client, websocket.CloseMessage, []byte{})
				return
			}
			if err := wh.write(client, websocket.TextMessage, message); err != nil {
				log.Warn("feed write failed", "error", err)
				return
			}

		case reply := <-replies:
			if err := wh.write(client, websocket.TextMessage, reply); err != nil {
				log.Warn("feed reply failed", "error", err)
				return
			}

		case <-ticker.C:
			if err := wh.write(client, websocket.PingMessage, nil); err != nil {
				log.Debug("feed ping failed", "error", err)
				return
			}
		}
	}
}

func (wh *WebSocketHandler) write(client *models.Client, messageType int, data []byte) error {
	client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return client.Conn.WriteMessage(messageType, data)
}
