package dialog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"

	"github.com/Maxibaroni/bot-ia-motos/internal/analysis/intent"
	"github.com/Maxibaroni/bot-ia-motos/internal/catalog"
	"github.com/Maxibaroni/bot-ia-motos/internal/model/chat"
	chatservice "github.com/Maxibaroni/bot-ia-motos/internal/service/chat"
)

// ErrBackendUnavailable is the single error class every generative
// backend fault collapses into: timeout, quota, malformed response.
var ErrBackendUnavailable = errors.New("generative backend unavailable")

// User-facing reply text. Dependency faults always come back as one of
// these, never as a raw error.
const (
	MsgInvalidSession    = "ID de sesión inválido o no encontrado."
	MsgSearchUnavailable = "Lo siento, no pude realizar la búsqueda en este momento."
	MsgBackendFailure    = "Lo siento, hubo un problema al procesar tu solicitud."
)

const marketplaceBaseURL = "https://listado.mercadolibre.com.ar/"

// Generator is the contract the generative backend must satisfy.
type Generator interface {
	GenerateReply(ctx context.Context, history []chat.Turn, userTurn chat.Turn) (string, error)
}

// Service routes each inbound turn: classify, dispatch to the catalog
// or the generative backend, fold the result back into the transcript.
type Service struct {
	catalog   catalog.Store
	sessions  *chatservice.Service
	generator Generator
}

// NewService wires the router. generator may be nil when the backend is
// not configured; generative turns then fail soft with the apology path.
func NewService(catalogStore catalog.Store, sessions *chatservice.Service, generator Generator) *Service {
	return &Service{
		catalog:   catalogStore,
		sessions:  sessions,
		generator: generator,
	}
}

// Route classifies a message. Transport handlers that need to branch
// before dispatching (the SSE stream) ask here, so the trigger-word
// policy has a single owner.
func (s *Service) Route(text string) intent.Route {
	return intent.Classify(text)
}

// HandleTurn processes one user turn against an active session and
// returns the reply text. ErrSessionNotFound and ErrBackendUnavailable
// are the only error classes that escape; everything else is folded
// into reply text.
func (s *Service) HandleTurn(ctx context.Context, sessionID string, userTurn chat.Turn) (string, error) {
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		return "", err
	}

	text := userTurn.Text()
	switch s.Route(text) {
	case intent.RouteCatalog:
		// Catalog turns are stateless: the generative history must
		// never be polluted with catalog Q&A.
		return s.catalogReply(ctx, text), nil
	default:
		return s.generativeReply(ctx, sessionID, userTurn)
	}
}

func (s *Service) catalogReply(ctx context.Context, text string) string {
	cleaned := intent.CleanQuery(text)

	product, err := s.catalog.Search(ctx, text)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return fmt.Sprintf("No he encontrado resultados para %q en tu tienda. Puedes intentar buscar en Mercado Libre: %s%s",
			cleaned, marketplaceBaseURL, url.PathEscape(cleaned))
	case err != nil:
		log.Printf("[dialog] catalog lookup failed: %v", err)
		return MsgSearchUnavailable
	default:
		return fmt.Sprintf("He encontrado este repuesto en tu tienda:\n\n* **Producto:** %s\n* **Precio:** %s\n* **Enlace:** %s",
			product.Name, product.Price, product.URL)
	}
}

func (s *Service) generativeReply(ctx context.Context, sessionID string, userTurn chat.Turn) (string, error) {
	if s.generator == nil {
		return "", ErrBackendUnavailable
	}

	history, err := s.sessions.Transcript(ctx, sessionID)
	if err != nil {
		return "", err
	}

	reply, err := s.generator.GenerateReply(ctx, history, userTurn)
	if err != nil {
		log.Printf("[dialog] backend failure for session=%s: %v", sessionID, err)
		return "", ErrBackendUnavailable
	}

	// The backend call already succeeded, so the user must see the
	// reply even if persisting the exchange fails.
	if err := s.sessions.AppendExchange(ctx, sessionID, userTurn, chat.AssistantTurn(reply)); err != nil {
		log.Printf("[dialog] transcript append failed for session=%s: %v", sessionID, err)
	}

	return reply, nil
}
