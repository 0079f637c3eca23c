package services

import (
	"encoding/json"
	"log/slog"
	"sync"

	"blogapi/models"
)

// HubService fans post events out to every connected feed client. The hub
// maps are only touched by the Run goroutine.
type HubService struct {
	hub      *models.Hub
	log      *slog.Logger
	done     chan struct{}
	stopOnce sync.Once
}

func NewHubService(log *slog.Logger) *HubService {
	service := &HubService{
		hub:  models.NewHub(),
		log:  log,
		done: make(chan struct{}),
	}

	go service.Run()

	return service
}

func (h *HubService) GetHub() *models.Hub {
	return h.hub
}

func (h *HubService) Run() {
	for {
		select {
		case client := <-h.hub.Register:
			h.hub.Clients[client] = true
			h.log.Debug("feed client registered", "client_id", client.ID, "clients", len(h.hub.Clients))

		case client := <-h.hub.Unregister:
			h.unregisterClient(client)

		case message := <-h.hub.Broadcast:
			h.broadcastToAll(message)

		case reply := <-h.hub.Count:
			reply <- len(h.hub.Clients)

		case <-h.done:
			for client := range h.hub.Clients {
				h.unregisterClient(client)
			}
			return
		}
	}
}

// Register adds a client; it reports false once the hub is stopped.
func (h *HubService) Register(client *models.Client) bool {
	select {
	case h.hub.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *HubService) Unregister(client *models.Client) {
	select {
	case h.hub.Unregister <- client:
	case <-h.done:
	}
}

func (h *HubService) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Publish queues an event for all clients. It never blocks the caller; when
// the queue is full the event is dropped and logged.
func (h *HubService) Publish(eventType string, data interface{}) {
	messageBytes, err := json.Marshal(models.WSMessage{Type: eventType, Data: data})
	if err != nil {
		h.log.Error("marshal feed event", "type", eventType, "error", err)
		return
	}

	select {
	case h.hub.Broadcast <- messageBytes:
	case <-h.done:
	default:
		h.log.Warn("feed queue full, dropping event", "type", eventType)
	}
}

func (h *HubService) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case h.hub.Count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

func (h *HubService) unregisterClient(client *models.Client) {
	if _, ok := h.hub.Clients[client]; ok {
		delete(h.hub.Clients, client)
		close(client.Send)
		h.log.Debug("feed client unregistered", "client_id", client.ID)
	}
}

func (h *HubService) broadcastToAll(message []byte) {
	for client := range h.hub.Clients {
		select {
		case client.Send <- message:
		default:
			h.log.Warn("feed client too slow, disconnecting", "client_id", client.ID)
			h.unregisterClient(client)
		}
	}
}
