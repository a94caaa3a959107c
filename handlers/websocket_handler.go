package handlers

import (
	"log"
	"net/http"

	"github.com/Dosada05/tournament-dashboard/brackets"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub      *brackets.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler accepts connections from allowedOrigins; "*" or an empty list allows any
// origin.
func NewWebSocketHandler(hub *brackets.Hub, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed["*"] || allowed[origin]
			},
		},
	}
}

// ServeWs подписывает клиента на обновления сетки.
// Клиент должен подключаться к /ws/fixtures/{fixtureID}
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	fixtureID, err := getIDFromURL(r, "fixtureID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP ошибку клиенту, так что здесь просто логируем.
		log.Printf("Failed to upgrade connection for fixture %d: %v", fixtureID, err)
		return
	}

	client := h.hub.NewClient(conn, fixtureID)
	if !h.hub.Join(client) {
		// сервер останавливается
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	log.Printf("Client registered for room %s.", client.Room)
}
