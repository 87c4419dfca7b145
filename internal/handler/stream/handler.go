package stream

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/Maxibaroni/bot-ia-motos/internal/analysis/intent"
	"github.com/Maxibaroni/bot-ia-motos/internal/model/chat"
	chatservice "github.com/Maxibaroni/bot-ia-motos/internal/service/chat"
	"github.com/Maxibaroni/bot-ia-motos/internal/service/dialog"
	"github.com/Maxibaroni/bot-ia-motos/pkg/utils"
)

// ReplyStreamer streams generative replies chunk by chunk; satisfied by
// the AI service.
type ReplyStreamer interface {
	StreamReply(ctx context.Context, history []chat.Turn, userTurn chat.Turn) (*schema.StreamReader[*schema.Message], error)
}

// Handler streams replies over Server-Sent Events. Catalog-routed
// messages arrive as a single chunk; generative replies stream
// incrementally and land in the transcript on completion.
type Handler struct {
	ai       ReplyStreamer
	sessions *chatservice.Service
	dialog   *dialog.Service
}

// New creates the stream handler.
func New(ai ReplyStreamer, sessions *chatservice.Service, dialogSvc *dialog.Service) *Handler {
	return &Handler{ai: ai, sessions: sessions, dialog: dialogSvc}
}

// Response is one streamed frame.
type Response struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest processes one turn and streams the reply.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return errors.New("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	if _, err := h.sessions.GetSession(ctx, sessionID); err != nil {
		h.sendError(w, flusher, dialog.MsgInvalidSession)
		return err
	}

	if h.dialog.Route(userMessage) == intent.RouteCatalog {
		reply, err := h.dialog.HandleTurn(ctx, sessionID, chat.UserTurn(chat.TextPart(userMessage)))
		if err != nil {
			h.sendError(w, flusher, dialog.MsgSearchUnavailable)
			return err
		}
		utils.SendSSEChunk(w, flusher, Response{Event: "chunk", Content: reply, SessionID: sessionID})
		utils.SendSSEChunk(w, flusher, Response{Event: "done", SessionID: sessionID, Finished: true})
		return nil
	}

	history, err := h.sessions.Transcript(ctx, sessionID)
	if err != nil {
		h.sendError(w, flusher, dialog.MsgInvalidSession)
		return err
	}

	userTurn := chat.UserTurn(chat.TextPart(userMessage))
	reader, err := h.ai.StreamReply(ctx, history, userTurn)
	if err != nil {
		h.sendError(w, flusher, dialog.MsgBackendFailure)
		return err
	}
	defer reader.Close()

	var full strings.Builder
	for {
		message, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.sendError(w, flusher, dialog.MsgBackendFailure)
			return err
		}
		if message.Content == "" {
			continue
		}
		full.WriteString(message.Content)
		utils.SendSSEChunk(w, flusher, Response{Event: "chunk", Content: message.Content, SessionID: sessionID})
	}

	// An empty reply never enters the transcript: the user/assistant
	// pair is only worth keeping when the backend actually said something.
	if full.Len() == 0 {
		log.Printf("[stream] empty reply for session=%s, transcript left untouched", sessionID)
	} else if err := h.sessions.AppendExchange(ctx, sessionID, userTurn, chat.AssistantTurn(full.String())); err != nil {
		log.Printf("[stream] transcript append failed for session=%s: %v", sessionID, err)
	}

	utils.SendSSEChunk(w, flusher, Response{Event: "done", SessionID: sessionID, Finished: true})
	return nil
}

func (h *Handler) sendError(w http.ResponseWriter, flusher http.Flusher, message string) {
	utils.SendSSEChunk(w, flusher, Response{Event: "error", Error: message})
}
