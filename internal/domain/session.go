package domain

// Intent is the product line a quotation is being collected for.
type Intent string

const (
	IntentMotor Intent = "MOTOR"
	IntentLife  Intent = "LIFE"
)

// Session is the persisted conversational state for one quotation flow,
// keyed by an opaque session identifier.
type Session struct {
	SessionID string
	Intent    Intent
	Slots     map[string]string
	Preview   *QuotePreview
	UpdatedAt int64
}

// NewSession returns an empty session shell for an unseen identifier.
func NewSession(sessionID string) *Session {
	return &Session{
		SessionID: sessionID,
		Slots:     map[string]string{},
	}
}

// BotMessage is a single message in the outbound response envelope.
type BotMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextMessage wraps plain text as a typed bot message.
func TextMessage(text string) BotMessage {
	return BotMessage{Type: "text", Text: text}
}
