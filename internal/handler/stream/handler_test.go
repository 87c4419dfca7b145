package stream

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/Maxibaroni/bot-ia-motos/internal/catalog"
	"github.com/Maxibaroni/bot-ia-motos/internal/model/chat"
	chatservice "github.com/Maxibaroni/bot-ia-motos/internal/service/chat"
	"github.com/Maxibaroni/bot-ia-motos/internal/service/dialog"
)

type stubStreamer struct {
	chunks []string
	err    error
}

func (s *stubStreamer) StreamReply(context.Context, []chat.Turn, chat.Turn) (*schema.StreamReader[*schema.Message], error) {
	if s.err != nil {
		return nil, s.err
	}
	messages := make([]*schema.Message, 0, len(s.chunks))
	for _, c := range s.chunks {
		messages = append(messages, schema.AssistantMessage(c, nil))
	}
	return schema.StreamReaderFromArray(messages), nil
}

func setup() (*Handler, *chatservice.Service) {
	return setupWithStreamer(nil)
}

func setupWithStreamer(streamer ReplyStreamer) (*Handler, *chatservice.Service) {
	sessions := chatservice.NewService()
	dialogSvc := dialog.NewService(catalog.NewMemoryStore(catalog.SeedProducts()), sessions, nil)
	return New(streamer, sessions, dialogSvc), sessions
}

func TestStreamUnknownSession(t *testing.T) {
	handler, _ := setup()
	resp := httptest.NewRecorder()

	err := handler.HandleStreamRequest(context.Background(), resp, "missing", "buscar filtro")
	if !errors.Is(err, chatservice.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if !strings.Contains(resp.Body.String(), "error") {
		t.Fatalf("expected an error frame, got:\n%s", resp.Body.String())
	}
}

func TestStreamCatalogPathSingleChunk(t *testing.T) {
	handler, sessions := setup()
	session, _ := sessions.CreateSession(context.Background())
	resp := httptest.NewRecorder()

	if err := handler.HandleStreamRequest(context.Background(), resp, session.ID, "buscar filtro de aire"); err != nil {
		t.Fatalf("HandleStreamRequest err: %v", err)
	}

	body := resp.Body.String()
	if !strings.Contains(body, "Filtro de Aire Honda XR 250 Tornado") {
		t.Fatalf("catalog chunk missing product:\n%s", body)
	}
	if !strings.Contains(body, `"event":"done"`) {
		t.Fatalf("missing done frame:\n%s", body)
	}
	if got := resp.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("unexpected content type %q", got)
	}

	// Catalog turns stay out of the transcript, streamed or not.
	turns, _ := sessions.Transcript(context.Background(), session.ID)
	if len(turns) != 0 {
		t.Fatalf("catalog stream mutated transcript: %d turns", len(turns))
	}
}

func TestStreamGenerativeAppendsExchange(t *testing.T) {
	handler, sessions := setupWithStreamer(&stubStreamer{chunks: []string{"La Tornado ", "usa filtro de papel."}})
	session, _ := sessions.CreateSession(context.Background())
	resp := httptest.NewRecorder()

	if err := handler.HandleStreamRequest(context.Background(), resp, session.ID, "¿qué filtro usa la Tornado?"); err != nil {
		t.Fatalf("HandleStreamRequest err: %v", err)
	}

	turns, _ := sessions.Transcript(context.Background(), session.ID)
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns after streamed exchange, got %d", len(turns))
	}
	if got := turns[1].Text(); got != "La Tornado usa filtro de papel." {
		t.Fatalf("assistant turn does not join the chunks: %q", got)
	}
	if !strings.Contains(resp.Body.String(), `"event":"done"`) {
		t.Fatalf("missing done frame:\n%s", resp.Body.String())
	}
}

// A stream that ends without producing any content must not leave an
// empty assistant turn in the transcript.
func TestStreamEmptyReplySkipsTranscript(t *testing.T) {
	handler, sessions := setupWithStreamer(&stubStreamer{})
	session, _ := sessions.CreateSession(context.Background())
	resp := httptest.NewRecorder()

	if err := handler.HandleStreamRequest(context.Background(), resp, session.ID, "hola"); err != nil {
		t.Fatalf("HandleStreamRequest err: %v", err)
	}

	turns, _ := sessions.Transcript(context.Background(), session.ID)
	if len(turns) != 0 {
		t.Fatalf("empty reply mutated transcript: %d turns", len(turns))
	}
	if !strings.Contains(resp.Body.String(), `"event":"done"`) {
		t.Fatalf("missing done frame:\n%s", resp.Body.String())
	}
}
