package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/kmazur/inkroom/models"
	"github.com/kmazur/inkroom/service"
	"github.com/kmazur/inkroom/store"
)

type Handler struct {
	Service           *service.Service
	Hub               *Hub
	MessagesPerSecond float64
	MessageBurst      int
}

func NewHandler(svc *service.Service, hub *Hub, messagesPerSecond float64, messageBurst int) *Handler {
	return &Handler{
		Service:           svc,
		Hub:               hub,
		MessagesPerSecond: messagesPerSecond,
		MessageBurst:      messageBurst,
	}
}

func (h *Handler) NewWsUpgrader(requiredOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if requiredOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == requiredOrigin
		},
		Subprotocols: []string{"inkroom-v1"},
	}
}

// ServeWS handles websocket requests from the peer. The session token rides
// in the second entry of the subprotocol list.
func (h *Handler) ServeWS(wsUpgrader websocket.Upgrader, w http.ResponseWriter, r *http.Request, shutdownCtx context.Context) {
	protocols := r.Header.Get("Sec-WebSocket-Protocol")
	protocolsSplit := strings.Split(protocols, ",")

	if len(protocolsSplit) != 2 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token := strings.TrimSpace(protocolsSplit[1])

	user, authErr := h.Service.AuthenticateToken(r.Context(), token)

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade ws connection: %v", err)
		return
	}

	// Must upgrade the connection in order to be able to send custom close message
	if authErr != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Unauthenticated"),
		)
		conn.Close()
		return
	}

	client := NewClient(h.Hub, conn, user, h.HandleWsMessage, h.handleDisconnect, h.MessagesPerSecond, h.MessageBurst)

	h.Hub.OpenCh <- client

	go client.ReadPump()
	go client.WritePump(shutdownCtx)
}

func (h *Handler) handleDisconnect(client *Client) {
	if client.room != "" {
		h.Service.LeaveRoom(context.Background(), client.room, client.user)
		client.room = ""
	}
}

// Websocket message structs
type message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type roomMsg struct {
	Room string `json:"room"`
}

type strokeMsg struct {
	Room   string        `json:"room"`
	Stroke models.Stroke `json:"stroke"`
}

type segmentMsg struct {
	Room    string        `json:"room"`
	Segment models.Stroke `json:"segment"`
}

type cursorMsg struct {
	Room string  `json:"room"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type drawingStateMsg struct {
	Room      string `json:"room"`
	IsDrawing bool   `json:"isDrawing"`
}

type globalUndoMsg struct {
	Room     string `json:"room"`
	StrokeId string `json:"strokeId"`
}

type pingMsg struct {
	Timestamp int64 `json:"timestamp"`
}

type responseMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func (h *Handler) HandleWsMessage(client *Client, messageType int, messageBytes []byte) {
	var msg message
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		log.Printf("Invalid JSON: %v", err)
		return
	}

	var resp responseMessage

	switch msg.Type {
	case "join":
		var m roomMsg
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			log.Printf("Invalid join data: %v", err)
			return
		}
		resp = h.handleJoin(client, m)

	case "leave":
		var m roomMsg
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			log.Printf("Invalid leave data: %v", err)
			return
		}
		resp = h.handleLeave(client, m)

	case "stroke":
		var m strokeMsg
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			log.Printf("Invalid stroke data: %v", err)
			return
		}
		resp = h.handleStroke(client, m)

	case "segment":
		var m segmentMsg
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			log.Printf("Invalid segment data: %v", err)
			return
		}
		h.Service.SubmitSegment(context.Background(), m.Room, client.user, m.Segment, client.id)

	case "cursor":
		var m cursorMsg
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			return
		}
		h.Service.MoveCursor(context.Background(), m.Room, client.user, m.X, m.Y, client.id)

	case "drawing_state":
		var m drawingStateMsg
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			return
		}
		h.Service.SetDrawingState(context.Background(), m.Room, client.user, m.IsDrawing, client.id)

	case "undo":
		var m roomMsg
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			log.Printf("Invalid undo data: %v", err)
			return
		}
		resp = h.handleUndo(client, m)

	case "global_undo":
		var m globalUndoMsg
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			log.Printf("Invalid global undo data: %v", err)
			return
		}
		resp = h.handleGlobalUndo(client, m)

	case "redo":
		var m strokeMsg
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			log.Printf("Invalid redo data: %v", err)
			return
		}
		resp = h.handleRedo(client, m)

	case "clear":
		var m roomMsg
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			log.Printf("Invalid clear data: %v", err)
			return
		}
		resp = h.handleClear(client, m)

	case "ping":
		var m pingMsg
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			return
		}
		resp = responseMessage{Type: "pong", Data: map[string]any{"timestamp": m.Timestamp}}

	default:
		log.Printf("Unknown message type: %v", msg.Type)
	}

	if resp.Type != "" {
		respBytes, err := json.Marshal(resp)
		if err != nil {
			log.Printf("Error marshaling response JSON: %v", err)
			return
		}
		client.Send <- respBytes
	}
}

func (h *Handler) handleJoin(client *Client, m roomMsg) responseMessage {
	resp := responseMessage{Type: "join_response"}

	if err := service.ValidateRoomName(m.Room); err != nil {
		resp.Data = map[string]any{"success": false, "error": err.Error(), "room": m.Room}
		return resp
	}

	if client.room != "" && client.room != m.Room {
		h.Service.LeaveRoom(context.Background(), client.room, client.user)
	}

	// Register for fan-out and wait for the hub's ack: once it arrives the
	// room subscription is live, so nothing committed after the snapshot
	// below can be missed. A stroke may appear in both the snapshot and a
	// live event; clients deduplicate by stroke id.
	ready := make(chan error, 1)
	h.Hub.JoinCh <- subscription{client: client, room: m.Room, ready: ready}
	if err := <-ready; err != nil {
		resp.Data = map[string]any{"success": false, "error": "room subscription failed", "room": m.Room}
		return resp
	}

	state, err := h.Service.JoinRoom(context.Background(), m.Room, client.user, client.id)
	if err != nil {
		h.Hub.LeaveCh <- subscription{client: client, room: m.Room}
		resp.Data = map[string]any{"success": false, "error": err.Error(), "room": m.Room}
		return resp
	}
	client.room = m.Room

	resp.Data = map[string]any{
		"success": true,
		"room":    state.Room,
		"userId":  client.user.Id,
		"users":   state.Users,
		"strokes": state.Strokes,
	}
	return resp
}

func (h *Handler) handleLeave(client *Client, m roomMsg) responseMessage {
	resp := responseMessage{Type: "leave_response"}

	if client.room != m.Room {
		resp.Data = map[string]any{"success": false, "error": service.ErrNotInRoom.Error(), "room": m.Room}
		return resp
	}

	h.Service.LeaveRoom(context.Background(), m.Room, client.user)
	h.Hub.LeaveCh <- subscription{client: client, room: m.Room}
	client.room = ""

	resp.Data = map[string]any{"success": true, "room": m.Room}
	return resp
}

func (h *Handler) handleStroke(client *Client, m strokeMsg) responseMessage {
	resp := responseMessage{Type: "stroke_response"}

	// Preview fragments are relayed only; they never reach the store.
	if m.Stroke.IsSegment {
		if err := h.Service.SubmitSegment(context.Background(), m.Room, client.user, m.Stroke, client.id); err != nil {
			resp.Data = map[string]any{"success": false, "error": err.Error(), "room": m.Room}
			return resp
		}
		resp.Data = map[string]any{"success": true, "room": m.Room, "segment": true}
		return resp
	}

	stored, err := h.Service.SubmitStroke(context.Background(), m.Room, client.user, m.Stroke, client.id)
	if err != nil {
		log.Printf("SubmitStroke failed: %v", err)
		resp.Data = map[string]any{"success": false, "error": err.Error(), "room": m.Room, "strokeId": m.Stroke.Id}
		return resp
	}

	resp.Data = map[string]any{"success": true, "room": m.Room, "strokeId": stored.Id}
	return resp
}

func (h *Handler) handleUndo(client *Client, m roomMsg) responseMessage {
	resp := responseMessage{Type: "undo_response"}

	removed, err := h.Service.UndoLast(context.Background(), m.Room, client.user)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Nothing left to undo is a no-op, not a failure.
			resp.Data = map[string]any{"success": true, "room": m.Room, "removed": false}
			return resp
		}
		resp.Data = map[string]any{"success": false, "error": err.Error(), "room": m.Room}
		return resp
	}

	resp.Data = map[string]any{"success": true, "room": m.Room, "removed": true, "strokeId": removed.Id}
	return resp
}

func (h *Handler) handleGlobalUndo(client *Client, m globalUndoMsg) responseMessage {
	resp := responseMessage{Type: "global_undo_response"}

	removed, err := h.Service.GlobalUndo(context.Background(), m.Room, client.user, m.StrokeId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			resp.Data = map[string]any{"success": true, "room": m.Room, "removed": false, "strokeId": m.StrokeId}
			return resp
		}
		resp.Data = map[string]any{"success": false, "error": err.Error(), "room": m.Room, "strokeId": m.StrokeId}
		return resp
	}

	resp.Data = map[string]any{"success": true, "room": m.Room, "removed": true, "strokeId": removed.Id}
	return resp
}

func (h *Handler) handleRedo(client *Client, m strokeMsg) responseMessage {
	resp := responseMessage{Type: "redo_response"}

	stored, err := h.Service.Redo(context.Background(), m.Room, client.user, m.Stroke, client.id)
	if err != nil {
		log.Printf("Redo failed: %v", err)
		resp.Data = map[string]any{"success": false, "error": err.Error(), "room": m.Room}
		return resp
	}

	resp.Data = map[string]any{"success": true, "room": m.Room, "strokeId": stored.Id}
	return resp
}

func (h *Handler) handleClear(client *Client, m roomMsg) responseMessage {
	resp := responseMessage{Type: "clear_response"}

	if err := h.Service.ClearRoom(context.Background(), m.Room, client.user); err != nil {
		resp.Data = map[string]any{"success": false, "error": err.Error(), "room": m.Room}
		return resp
	}

	resp.Data = map[string]any{"success": true, "room": m.Room}
	return resp
}
