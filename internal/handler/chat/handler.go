package chat

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Maxibaroni/bot-ia-motos/internal/model/chat"
	chatservice "github.com/Maxibaroni/bot-ia-motos/internal/service/chat"
	"github.com/Maxibaroni/bot-ia-motos/internal/service/dialog"
	"github.com/Maxibaroni/bot-ia-motos/pkg/utils"
)

// Handler exposes the session and chat endpoints.
type Handler struct {
	sessions *chatservice.Service
	dialog   *dialog.Service
}

// New creates the chat handler.
func New(sessions *chatservice.Service, dialogSvc *dialog.Service) *Handler {
	return &Handler{sessions: sessions, dialog: dialogSvc}
}

// RegisterRoutes registers the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/start-session", h.handleStartSession)
	r.Post("/chat", h.handleChat)
}

func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.CreateSession(r.Context())
	if err != nil {
		utils.RespondMessage(w, http.StatusInternalServerError, dialog.MsgBackendFailure)
		return
	}

	log.Printf("[chat] new session started: %s", session.ID)
	utils.RespondJSON(w, http.StatusOK, map[string]string{"sessionId": session.ID})
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
		ImageData string `json:"imageData"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "Cuerpo de la solicitud inválido.")
		return
	}

	// Boundary validation: malformed input never reaches the router
	// and never mutates state.
	message := strings.TrimSpace(payload.Message)
	if message == "" && payload.ImageData == "" {
		utils.RespondMessage(w, http.StatusBadRequest, "El mensaje no puede estar vacío.")
		return
	}

	var parts []chat.Part
	if message != "" {
		parts = append(parts, chat.TextPart(message))
	}
	if payload.ImageData != "" {
		mime, data, err := parseDataURL(payload.ImageData)
		if err != nil {
			utils.RespondMessage(w, http.StatusBadRequest, "Imagen adjunta inválida.")
			return
		}
		parts = append(parts, chat.ImagePart(mime, data))
	}

	reply, err := h.dialog.HandleTurn(r.Context(), payload.SessionID, chat.UserTurn(parts...))
	switch {
	case errors.Is(err, chatservice.ErrSessionNotFound):
		utils.RespondMessage(w, http.StatusBadRequest, dialog.MsgInvalidSession)
	case errors.Is(err, dialog.ErrBackendUnavailable):
		utils.RespondMessage(w, http.StatusInternalServerError, dialog.MsgBackendFailure)
	case err != nil:
		log.Printf("[chat] unexpected error: %v", err)
		utils.RespondMessage(w, http.StatusInternalServerError, dialog.MsgBackendFailure)
	default:
		utils.RespondMessage(w, http.StatusOK, reply)
	}
}

// parseDataURL splits a data:<mime>;base64,<payload> URL into its media
// type and decoded bytes.
func parseDataURL(raw string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(raw, "data:")
	if !ok {
		return "", nil, errors.New("missing data: prefix")
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("missing payload separator")
	}

	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mime == "" {
		return "", nil, errors.New("unsupported data url encoding")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	return mime, data, nil
}
