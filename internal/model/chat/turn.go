package chat

import "time"

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartType discriminates the content variants a part can carry.
type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
)

// Part is one typed content fragment of a turn: either text or an
// inline image payload with its media type.
type Part struct {
	Type PartType `json:"type"`
	Text string   `json:"text,omitempty"`
	MIME string   `json:"mime,omitempty"`
	Data []byte   `json:"data,omitempty"`
}

// TextPart builds a text fragment.
func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

// ImagePart builds an inline image fragment.
func ImagePart(mime string, data []byte) Part {
	return Part{Type: PartImage, MIME: mime, Data: data}
}

// Turn is one message exchanged in a conversation. Turns are immutable
// once appended to a transcript.
type Turn struct {
	Role      Role      `json:"role"`
	Parts     []Part    `json:"parts"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserTurn builds a user-role turn from the given parts.
func UserTurn(parts ...Part) Turn {
	return Turn{Role: RoleUser, Parts: parts, CreatedAt: time.Now().UTC()}
}

// AssistantTurn builds an assistant-role turn carrying a single text part.
func AssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Parts: []Part{TextPart(text)}, CreatedAt: time.Now().UTC()}
}

// Text concatenates the text parts of the turn.
func (t Turn) Text() string {
	var out string
	for _, p := range t.Parts {
		if p.Type == PartText {
			out += p.Text
		}
	}
	return out
}
