package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/Maxibaroni/bot-ia-motos/internal/config"
	"github.com/Maxibaroni/bot-ia-motos/internal/model/chat"
	"github.com/Maxibaroni/bot-ia-motos/internal/model/persona"
)

// historyLimit caps how many prior turns ride along with each request.
// Turns come in user/assistant pairs, so this covers the last 10 exchanges.
const historyLimit = 20

// Service adapts the eino chat model to the dialog router's needs:
// persona system prompt, transcript window, multimodal user turns.
type Service struct {
	chatModel model.ChatModel
	persona   persona.Persona
	timeout   time.Duration
}

// NewService creates the generative backend adapter.
func NewService(ctx context.Context, p persona.Persona, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		persona:   p,
		timeout:   cfg.Timeout,
	}, nil
}

// GenerateReply produces one assistant reply for the new user turn,
// bounded by the configured timeout. Any backend fault surfaces as a
// single error for the caller to downgrade.
func (s *Service) GenerateReply(ctx context.Context, history []chat.Turn, userTurn chat.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	response, err := s.chatModel.Generate(ctx, s.buildMessages(history, userTurn))
	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}

	log.Printf("[ai] generated reply, length=%d", len(response.Content))
	return response.Content, nil
}

// StreamReply streams the assistant reply chunk by chunk. The caller's
// request context bounds the stream lifetime.
func (s *Service) StreamReply(ctx context.Context, history []chat.Turn, userTurn chat.Turn) (*schema.StreamReader[*schema.Message], error) {
	stream, err := s.chatModel.Stream(ctx, s.buildMessages(history, userTurn))
	if err != nil {
		return nil, fmt.Errorf("failed to stream reply: %w", err)
	}
	return stream, nil
}

func (s *Service) buildMessages(history []chat.Turn, userTurn chat.Turn) []*schema.Message {
	startIdx := 0
	if len(history) > historyLimit {
		startIdx = len(history) - historyLimit
	}

	messages := make([]*schema.Message, 0, len(history)-startIdx+2)
	messages = append(messages, schema.SystemMessage(s.persona.SystemInstruction))

	for _, turn := range history[startIdx:] {
		switch turn.Role {
		case chat.RoleUser:
			messages = append(messages, toUserMessage(turn))
		case chat.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Text(), nil))
		}
	}

	return append(messages, toUserMessage(userTurn))
}

// toUserMessage maps a turn to an eino message. Text-only turns stay
// plain strings; turns carrying an image become multimodal content.
func toUserMessage(turn chat.Turn) *schema.Message {
	hasImage := false
	for _, p := range turn.Parts {
		if p.Type == chat.PartImage {
			hasImage = true
			break
		}
	}

	if !hasImage {
		return schema.UserMessage(turn.Text())
	}

	parts := make([]schema.ChatMessagePart, 0, len(turn.Parts))
	for _, p := range turn.Parts {
		switch p.Type {
		case chat.PartText:
			parts = append(parts, schema.ChatMessagePart{
				Type: schema.ChatMessagePartTypeText,
				Text: p.Text,
			})
		case chat.PartImage:
			parts = append(parts, schema.ChatMessagePart{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL:      dataURL(p),
					MIMEType: p.MIME,
				},
			})
		}
	}

	return &schema.Message{Role: schema.User, MultiContent: parts}
}

func dataURL(p chat.Part) string {
	return "data:" + p.MIME + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}
