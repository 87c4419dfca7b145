package dialog_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Maxibaroni/bot-ia-motos/internal/analysis/intent"
	"github.com/Maxibaroni/bot-ia-motos/internal/catalog"
	model "github.com/Maxibaroni/bot-ia-motos/internal/model/catalog"
	"github.com/Maxibaroni/bot-ia-motos/internal/model/chat"
	chatservice "github.com/Maxibaroni/bot-ia-motos/internal/service/chat"
	"github.com/Maxibaroni/bot-ia-motos/internal/service/dialog"
)

type stubGenerator struct {
	reply string
	err   error
	calls int
}

func (g *stubGenerator) GenerateReply(_ context.Context, _ []chat.Turn, _ chat.Turn) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

type failingCatalog struct{ calls int }

func (c *failingCatalog) Search(context.Context, string) (model.Product, error) {
	c.calls++
	return model.Product{}, errors.New("storage unavailable")
}

func (c *failingCatalog) Close() error { return nil }

func newService(gen dialog.Generator) (*dialog.Service, *chatservice.Service, string) {
	sessions := chatservice.NewService()
	session, _ := sessions.CreateSession(context.Background())
	svc := dialog.NewService(catalog.NewMemoryStore(catalog.SeedProducts()), sessions, gen)
	return svc, sessions, session.ID
}

func TestCatalogPathFoundProduct(t *testing.T) {
	svc, _, sessionID := newService(&stubGenerator{reply: "hola"})

	reply, err := svc.HandleTurn(context.Background(), sessionID, chat.UserTurn(chat.TextPart("buscar filtro de aire")))
	if err != nil {
		t.Fatalf("HandleTurn err: %v", err)
	}

	for _, want := range []string{"Filtro de Aire Honda XR 250 Tornado", "$9.478", "https://ejemplo.com/filtro-aire-honda-xr-250"} {
		if !strings.Contains(reply, want) {
			t.Errorf("reply missing %q:\n%s", want, reply)
		}
	}
}

func TestCatalogPathMarketplaceFallback(t *testing.T) {
	svc, _, sessionID := newService(&stubGenerator{reply: "hola"})

	reply, err := svc.HandleTurn(context.Background(), sessionID, chat.UserTurn(chat.TextPart("buscar bujía NGK")))
	if err != nil {
		t.Fatalf("HandleTurn err: %v", err)
	}

	if !strings.Contains(reply, "https://listado.mercadolibre.com.ar/buj%C3%ADa%20ngk") {
		t.Fatalf("fallback reply missing escaped marketplace URL:\n%s", reply)
	}
	if !strings.Contains(reply, `"bujía ngk"`) {
		t.Fatalf("fallback reply missing cleaned query:\n%s", reply)
	}
}

// Any trigger word forces the catalog path, regardless of other content.
func TestCatalogPrecedenceOverGenerative(t *testing.T) {
	gen := &stubGenerator{reply: "no debería llamarse"}
	svc, _, sessionID := newService(gen)

	for _, msg := range []string{"buscar filtro de aire", "decime el precio del filtro"} {
		if _, err := svc.HandleTurn(context.Background(), sessionID, chat.UserTurn(chat.TextPart(msg))); err != nil {
			t.Fatalf("HandleTurn(%q) err: %v", msg, err)
		}
	}
	if gen.calls != 0 {
		t.Fatalf("generator called %d times on catalog-routed messages", gen.calls)
	}
}

// Catalog turns never touch the transcript.
func TestCatalogPathIsStateless(t *testing.T) {
	svc, sessions, sessionID := newService(&stubGenerator{reply: "hola"})
	ctx := context.Background()

	before, _ := sessions.Transcript(ctx, sessionID)
	if _, err := svc.HandleTurn(ctx, sessionID, chat.UserTurn(chat.TextPart("precio filtro"))); err != nil {
		t.Fatalf("HandleTurn err: %v", err)
	}
	after, _ := sessions.Transcript(ctx, sessionID)

	if len(before) != len(after) {
		t.Fatalf("catalog turn mutated transcript: %d -> %d", len(before), len(after))
	}
}

func TestCatalogFaultDowngradesToApology(t *testing.T) {
	sessions := chatservice.NewService()
	session, _ := sessions.CreateSession(context.Background())
	store := &failingCatalog{}
	svc := dialog.NewService(store, sessions, &stubGenerator{})

	reply, err := svc.HandleTurn(context.Background(), session.ID, chat.UserTurn(chat.TextPart("buscar algo")))
	if err != nil {
		t.Fatalf("expected soft failure, got err: %v", err)
	}
	if reply != dialog.MsgSearchUnavailable {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if store.calls != 1 {
		t.Fatalf("catalog called %d times", store.calls)
	}
}

func TestGenerativePathAppendsExchange(t *testing.T) {
	svc, sessions, sessionID := newService(&stubGenerator{reply: "Es un filtro de aire de papel."})
	ctx := context.Background()

	reply, err := svc.HandleTurn(ctx, sessionID, chat.UserTurn(chat.TextPart("¿qué filtro usa la Tornado?")))
	if err != nil {
		t.Fatalf("HandleTurn err: %v", err)
	}
	if reply != "Es un filtro de aire de papel." {
		t.Fatalf("unexpected reply: %q", reply)
	}

	turns, _ := sessions.Transcript(ctx, sessionID)
	if len(turns) != 2 {
		t.Fatalf("expected transcript to grow by 2, got %d turns", len(turns))
	}
	if turns[0].Role != chat.RoleUser || turns[1].Role != chat.RoleAssistant {
		t.Fatalf("unexpected turn order: %s, %s", turns[0].Role, turns[1].Role)
	}
}

func TestGenerativeFailureLeavesTranscriptUntouched(t *testing.T) {
	svc, sessions, sessionID := newService(&stubGenerator{err: errors.New("quota exceeded")})
	ctx := context.Background()

	_, err := svc.HandleTurn(ctx, sessionID, chat.UserTurn(chat.TextPart("hola")))
	if !errors.Is(err, dialog.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}

	turns, _ := sessions.Transcript(ctx, sessionID)
	if len(turns) != 0 {
		t.Fatalf("failed turn mutated transcript: %d turns", len(turns))
	}
}

func TestUnknownSessionRejectedBeforeDispatch(t *testing.T) {
	gen := &stubGenerator{reply: "hola"}
	sessions := chatservice.NewService()
	store := &failingCatalog{}
	svc := dialog.NewService(store, sessions, gen)

	_, err := svc.HandleTurn(context.Background(), "no-such-session", chat.UserTurn(chat.TextPart("buscar filtro")))
	if !errors.Is(err, chatservice.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if gen.calls != 0 || store.calls != 0 {
		t.Fatal("dependencies called for unknown session")
	}
}

// Route is the single owner of the trigger-word policy; transport
// handlers that branch before dispatching must see the same decision
// HandleTurn makes.
func TestRouteMatchesHandleTurnPolicy(t *testing.T) {
	svc, sessions, sessionID := newService(&stubGenerator{reply: "hola"})
	ctx := context.Background()

	if got := svc.Route("decime el precio del filtro"); got != intent.RouteCatalog {
		t.Fatalf("Route = %s, want catalog", got)
	}
	if got := svc.Route("hola, ¿cómo estás?"); got != intent.RouteGenerative {
		t.Fatalf("Route = %s, want generative", got)
	}

	// Catalog-routed per Route, and HandleTurn agrees: no transcript growth.
	if _, err := svc.HandleTurn(ctx, sessionID, chat.UserTurn(chat.TextPart("decime el precio del filtro"))); err != nil {
		t.Fatalf("HandleTurn err: %v", err)
	}
	turns, _ := sessions.Transcript(ctx, sessionID)
	if len(turns) != 0 {
		t.Fatalf("catalog-routed turn mutated transcript: %d turns", len(turns))
	}
}

func TestNilGeneratorFailsSoft(t *testing.T) {
	sessions := chatservice.NewService()
	session, _ := sessions.CreateSession(context.Background())
	svc := dialog.NewService(catalog.NewMemoryStore(nil), sessions, nil)

	_, err := svc.HandleTurn(context.Background(), session.ID, chat.UserTurn(chat.TextPart("hola")))
	if !errors.Is(err, dialog.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}
