package rest

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/kmazur/inkroom/service"
)

type Handler struct {
	Service *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{Service: svc}
}

type sessionRequest struct {
	Name string `json:"name"`
}

type sessionResponse struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req sessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	user, token, err := h.Service.CreateSession(r.Context(), req.Name)
	if err != nil {
		log.Printf("Create session failed: %v", err)
		http.Error(w, "failed to create session", http.StatusBadRequest)
		return
	}

	resp := sessionResponse{
		Id:    user.Id,
		Name:  user.Name,
		Token: token,
	}
	h.sendResponse(w, resp)
}

func (h *Handler) HandleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.sendResponse(w, h.Service.RoomList(r.Context()))
}

func (h *Handler) HandleRoomStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	room := r.PathValue("room")
	if err := service.ValidateRoomName(room); err != nil {
		http.Error(w, "invalid room name", http.StatusBadRequest)
		return
	}

	stats, err := h.Service.RoomStats(r.Context(), room)
	if err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	h.sendResponse(w, stats)
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.sendResponse(w, h.Service.AllStats(r.Context()))
}

func (h *Handler) sendResponse(w http.ResponseWriter, resp any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
