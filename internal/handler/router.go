package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chathandler "github.com/Maxibaroni/bot-ia-motos/internal/handler/chat"
	"github.com/Maxibaroni/bot-ia-motos/internal/handler/stream"
	middlewarePkg "github.com/Maxibaroni/bot-ia-motos/internal/middleware"
	aiservice "github.com/Maxibaroni/bot-ia-motos/internal/service/ai"
	chatservice "github.com/Maxibaroni/bot-ia-motos/internal/service/chat"
	"github.com/Maxibaroni/bot-ia-motos/internal/service/dialog"
	"github.com/Maxibaroni/bot-ia-motos/pkg/utils"
)

// NewRouter wires HTTP routes to core services. aiSvc may be nil when
// the generative backend is not configured; the streaming endpoint is
// then unavailable and generative turns fail soft.
func NewRouter(sessions *chatservice.Service, dialogSvc *dialog.Service, aiSvc *aiservice.Service, staticDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chathandler.New(sessions, dialogSvc)
	chatHandler.RegisterRoutes(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if aiSvc != nil {
		streamHandler := stream.New(aiSvc, sessions, dialogSvc)
		r.Get("/stream/{sessionID}", func(w http.ResponseWriter, req *http.Request) {
			sessionID := chi.URLParam(req, "sessionID")
			userMessage := req.URL.Query().Get("message")
			if userMessage == "" {
				utils.RespondMessage(w, http.StatusBadRequest, "El mensaje no puede estar vacío.")
				return
			}
			if err := streamHandler.HandleStreamRequest(req.Context(), w, sessionID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})
	}

	if staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(staticDir)))
	}

	return r
}
