package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"insurance-chatbot/internal/domain"
	"insurance-chatbot/internal/schema"
)

const (
	choicePrompt   = "What would you like to get a quotation for? Motor or Life?"
	emailQuestion  = "Would you like me to email the full quotation to you? (Yes / No)"
	invalidPrefix  = "Sorry, I couldn't understand that. "
	previewFailMsg = "Sorry, I couldn't calculate a quote right now. Please try again later."
	createFailMsg  = "Sorry, we couldn't send the email at this time. Try again later."
	expiredMsg     = "Session expired. Please start a new quote."
	noPreviewMsg   = "No preview found. Please create a quote preview first."
	declinedMsg    = "Okay. Say restart whenever you want to begin a new quote."
)

// SessionStore persists sessions keyed by session identifier. Get returns
// (nil, nil) for an unseen identifier.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Put(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, sessionID string) error
}

// QuoteBackend is the external quoting service.
type QuoteBackend interface {
	Preview(ctx context.Context, line domain.Intent, attributes map[string]any) (*domain.QuotePreview, error)
	Create(ctx context.Context, line domain.Intent, attributes map[string]any) (domain.QuoteReceipt, error)
}

// DialogueService is the dialogue state machine. Given one inbound message
// and the stored session it decides the next state and the messages to emit.
type DialogueService struct {
	store    SessionStore
	backend  QuoteBackend
	registry *schema.Registry
}

type TurnInput struct {
	SessionID string
	Text      string
}

type TurnOutput struct {
	SessionID  string
	Messages   []domain.BotMessage
	EndSession bool
}

func NewDialogueService(store SessionStore, backend QuoteBackend, registry *schema.Registry) (*DialogueService, error) {
	if store == nil {
		return nil, errors.New("usecase: session store must not be nil")
	}
	if backend == nil {
		return nil, errors.New("usecase: quote backend must not be nil")
	}
	if registry == nil {
		return nil, errors.New("usecase: schema registry must not be nil")
	}
	return &DialogueService{store: store, backend: backend, registry: registry}, nil
}

var cancelPhrases = map[string]bool{
	"cancel":     true,
	"restart":    true,
	"start over": true,
	"reset":      true,
}

var affirmatives = map[string]bool{
	"yes": true, "y": true, "sure": true, "ok": true,
	"please": true, "send": true, "yep": true, "yeah": true,
}

var negatives = map[string]bool{"no": true, "n": true}

// HandleTurn processes a single user message against the stored session.
// Transitions are evaluated in precedence order: cancel, intent detection,
// mid-flow intent switch, slot filling, completion, preview follow-up.
func (s *DialogueService) HandleTurn(ctx context.Context, in TurnInput) (TurnOutput, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		sessionID = newUUID()
	}
	text := strings.TrimSpace(in.Text)

	// Cancel wins from any state, including an absent session.
	if cancelPhrases[strings.ToLower(text)] {
		if err := s.store.Delete(ctx, sessionID); err != nil {
			return TurnOutput{}, newError(ErrorInternal, "session_delete_error", err)
		}
		return reply(sessionID, false, choicePrompt), nil
	}

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return TurnOutput{}, newError(ErrorInternal, "session_load_error", err)
	}
	if sess == nil {
		sess = domain.NewSession(sessionID)
	}
	sess.SessionID = sessionID
	if sess.Slots == nil {
		sess.Slots = map[string]string{}
	}

	if sess.Intent == "" {
		intent := s.registry.Classify(text)
		if intent == "" {
			if err := s.save(ctx, sess); err != nil {
				return TurnOutput{}, err
			}
			return reply(sessionID, false, choicePrompt), nil
		}
		s.resetFlow(sess, intent)
		if err := s.save(ctx, sess); err != nil {
			return TurnOutput{}, err
		}
		first := s.registry.Flow(intent)[0]
		return reply(sessionID, false, "Great, let's start your "+string(intent)+" quotation.", first.Prompt), nil
	}

	if next := s.registry.Classify(text); next != "" && next != sess.Intent {
		s.resetFlow(sess, next)
		if err := s.save(ctx, sess); err != nil {
			return TurnOutput{}, err
		}
		first := s.registry.Flow(next)[0]
		return reply(sessionID, false, "Switching to "+string(next)+" flow.", first.Prompt), nil
	}

	if pending, awaiting := s.registry.PendingSlot(sess.Intent, sess.Slots); awaiting {
		value, valid := s.registry.Validate(pending.Key, text)
		if !valid {
			// Retry without mutating stored slots or advancing state.
			return reply(sessionID, false, invalidPrefix+pending.Prompt), nil
		}
		sess.Slots[pending.Key] = value
		if err := s.save(ctx, sess); err != nil {
			return TurnOutput{}, err
		}
		if next, more := s.registry.PendingSlot(sess.Intent, sess.Slots); more {
			return reply(sessionID, false, next.Prompt), nil
		}
		return s.complete(ctx, sess)
	}

	if sess.Preview != nil {
		lowered := strings.ToLower(text)
		switch {
		case affirmatives[lowered]:
			return s.confirmSend(ctx, sess)
		case negatives[lowered]:
			return reply(sessionID, false, declinedMsg), nil
		default:
			return reply(sessionID, false, emailQuestion), nil
		}
	}

	// All slots are filled but no preview is stored, so an earlier backend
	// call failed. Any message retries completion with the same payload.
	return s.complete(ctx, sess)
}

// complete builds the attribute payload, requests a preview and asks whether
// to email the quotation. The session survives a backend failure so the user
// can retry without re-entering slots.
func (s *DialogueService) complete(ctx context.Context, sess *domain.Session) (TurnOutput, error) {
	attrs := buildAttributes(s.registry.Flow(sess.Intent), sess.Intent, sess.Slots)
	preview, err := s.backend.Preview(ctx, sess.Intent, attrs)
	if err != nil {
		slog.Error("quote preview failed", "sessionId", sess.SessionID, "line", sess.Intent, "err", err)
		return reply(sess.SessionID, false, previewFailMsg), nil
	}
	sess.Preview = preview
	if err := s.save(ctx, sess); err != nil {
		return TurnOutput{}, err
	}
	summary := renderSummary(preview, sess.Intent, sess.Slots)
	return reply(sess.SessionID, false, summary, emailQuestion), nil
}

// ConfirmSend issues the create-and-email call for a session holding a
// stored preview. It is triggered explicitly, not by normal chat text.
func (s *DialogueService) ConfirmSend(ctx context.Context, sessionID string) (TurnOutput, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return TurnOutput{}, newError(ErrorInvalidInput, "missing_session_id", nil)
	}
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return TurnOutput{}, newError(ErrorInternal, "session_load_error", err)
	}
	if sess == nil {
		return reply(sessionID, false, expiredMsg), nil
	}
	return s.confirmSend(ctx, sess)
}

func (s *DialogueService) confirmSend(ctx context.Context, sess *domain.Session) (TurnOutput, error) {
	if sess.Preview == nil {
		return reply(sess.SessionID, false, noPreviewMsg), nil
	}
	attrs := buildAttributes(s.registry.Flow(sess.Intent), sess.Intent, sess.Slots)
	receipt, err := s.backend.Create(ctx, sess.Intent, attrs)
	if err != nil || !receipt.OK {
		slog.Error("quote create failed", "sessionId", sess.SessionID, "line", sess.Intent, "backendError", receipt.Error, "err", err)
		return reply(sess.SessionID, false, createFailMsg), nil
	}
	if err := s.store.Delete(ctx, sess.SessionID); err != nil {
		return TurnOutput{}, newError(ErrorInternal, "session_delete_error", err)
	}
	ref := receipt.ID
	if ref == "" {
		ref = "(no ref)"
	}
	return reply(sess.SessionID, true, "Your quotation has been emailed. Reference: "+ref), nil
}

func (s *DialogueService) resetFlow(sess *domain.Session, intent domain.Intent) {
	sess.Intent = intent
	sess.Slots = map[string]string{}
	sess.Preview = nil
}

func (s *DialogueService) save(ctx context.Context, sess *domain.Session) error {
	sess.UpdatedAt = now().Unix()
	if err := s.store.Put(ctx, sess); err != nil {
		return newError(ErrorInternal, "session_save_error", err)
	}
	return nil
}

func reply(sessionID string, end bool, texts ...string) TurnOutput {
	msgs := make([]domain.BotMessage, 0, len(texts))
	for _, t := range texts {
		msgs = append(msgs, domain.TextMessage(t))
	}
	return TurnOutput{SessionID: sessionID, Messages: msgs, EndSession: end}
}

var newUUID = func() string {
	return uuid.NewString()
}

var now = time.Now
