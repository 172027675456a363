package realtime

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/emberly-app/emberly-backend/internal/common/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Configure origin checking in production
		return true
	},
}

// Event is the wire format for realtime notifications
type Event struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

type envelope struct {
	userID int64
	event  Event
}

// Client is a single websocket connection for a user.
// A user may hold several connections (multiple devices).
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan Event
	id     string
	userID int64
}

// Hub tracks connected clients and routes per-user events to them
type Hub struct {
	clients    map[int64]map[string]*Client
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub creates an idle hub; call Run in a goroutine to start it
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]map[string]*Client),
		broadcast:  make(chan envelope, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes register/unregister/broadcast events until Shutdown
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[string]*Client)
			}
			h.clients[client.userID][client.id] = client
			log.Printf("realtime: user %d connected (%s)", client.userID, client.id)

		case client := <-h.unregister:
			if conns, ok := h.clients[client.userID]; ok {
				if _, ok := conns[client.id]; ok {
					delete(conns, client.id)
					close(client.send)
					if len(conns) == 0 {
						delete(h.clients, client.userID)
					}
					log.Printf("realtime: user %d disconnected (%s)", client.userID, client.id)
				}
			}

		case msg := <-h.broadcast:
			for _, client := range h.clients[msg.userID] {
				select {
				case client.send <- msg.event:
				default:
					// Slow consumer: drop the connection rather than block the hub
					close(client.send)
					delete(h.clients[msg.userID], client.id)
				}
			}

		case <-h.done:
			for _, conns := range h.clients {
				for _, client := range conns {
					close(client.send)
				}
			}
			h.clients = make(map[int64]map[string]*Client)
			return
		}
	}
}

// Shutdown stops the hub loop and closes all client channels
func (h *Hub) Shutdown() {
	close(h.done)
}

// SendToUser queues an event for every connection the user holds.
// Fire-and-forget: if the hub is stopped or saturated the event is dropped.
func (h *Hub) SendToUser(userID int64, event string, payload interface{}) {
	select {
	case h.broadcast <- envelope{userID: userID, event: Event{Name: event, Payload: payload}}:
	default:
	}
}

// ServeWS upgrades an authenticated HTTP request to a websocket connection
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan Event, 256),
		id:     uuid.NewString(),
		userID: userID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for event := range c.send {
		if err := c.conn.WriteJSON(event); err != nil {
			return
		}
	}
}

// detach hands the client back to the hub loop, or gives up if the hub
// already stopped; readPump must never block on a dead hub
func (c *Client) detach() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.detach()
		c.conn.Close()
	}()
	for {
		// Clients do not send messages; the read loop only detects disconnects
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
