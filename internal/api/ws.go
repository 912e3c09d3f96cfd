package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	readDeadline = 60 * time.Second
	maxEventSize = 512
)

// Hub fans broadcast messages out to every connected gallery watcher.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Printf("[WS] Gallery watcher connected. Total: %d", h.ClientCount())

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mutex.Unlock()
			log.Printf("[WS] Gallery watcher disconnected. Total: %d", h.ClientCount())

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					log.Printf("[WS] Error sending message: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *Hub) Register(client *websocket.Conn)   { h.register <- client }
func (h *Hub) Unregister(client *websocket.Conn) { h.unregister <- client }
func (h *Hub) Broadcast(message []byte)          { h.broadcast <- message }

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// GallerySocketHandler subscribes a client to gallery-refresh notices.
func (app *App) GallerySocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}
	conn.SetReadLimit(maxEventSize)
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	app.Hub.Register(conn)
	defer app.Hub.Unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// pointerEvent is one drawing gesture step from the client. Coordinates
// are client-space; the session divides out the zoom scale.
type pointerEvent struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// SessionSocketHandler streams pointer events into a session's gesture
// handling and answers each with a fresh state snapshot.
func (app *App) SessionSocketHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := app.session(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxEventSize)
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	log.Printf("[WS] Pointer stream opened for session %s", s.ID)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[WS] Pointer stream closed for session %s: %v", s.ID, err)
			return
		}
		// Pointer traffic itself keeps an active drawing session alive.
		conn.SetReadDeadline(time.Now().Add(readDeadline))

		var ev pointerEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			continue
		}

		switch ev.Type {
		case "down":
			s.PointerDown(ev.X, ev.Y)
		case "move":
			s.PointerMove(ev.X, ev.Y)
		case "up":
			s.PointerUp()
		default:
			continue
		}

		if err := conn.WriteJSON(s.Snapshot()); err != nil {
			log.Printf("[WS] Error sending snapshot: %v", err)
			return
		}
	}
}
