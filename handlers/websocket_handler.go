package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Dosada05/matchday/realtime"
	"github.com/Dosada05/matchday/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the configured frontend origins once there is one.
		return true
	},
}

type WebSocketHandler struct {
	hub      *realtime.Hub
	sessions SessionManager
}

func NewWebSocketHandler(hub *realtime.Hub, sessions SessionManager) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, sessions: sessions}
}

// ServeWs handles GET /ws. The client joins the room of ?save_id=, or of the
// loaded save when the parameter is absent.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	var saveID uuid.UUID
	if raw := r.URL.Query().Get("save_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			errorResponse(w, r, http.StatusBadRequest, "invalid save_id query parameter")
			return
		}
		saveID = id
	} else {
		s, err := h.sessions.Current()
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		saveID = s.ID
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		loggerFrom(r).WithError(err).WithField("save_id", saveID).Warn("Failed to upgrade websocket connection")
		return
	}

	client := &realtime.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, realtime.SendBufferSize),
		Room: services.SaveRoom(saveID),
	}
	if !h.hub.Join(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
