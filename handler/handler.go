package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"insurance-chatbot/internal/domain"
	"insurance-chatbot/internal/usecase"
)

const confirmSendAction = "confirm_send"

// DialogueUseCase is the dialogue surface consumed by the handler.
type DialogueUseCase interface {
	HandleTurn(ctx context.Context, in usecase.TurnInput) (usecase.TurnOutput, error)
	ConfirmSend(ctx context.Context, sessionID string) (usecase.TurnOutput, error)
}

// chatRequest is the inbound message body. Both inputText and message are
// accepted; inputText wins when both are present.
type chatRequest struct {
	SessionID string `json:"sessionId"`
	InputText string `json:"inputText"`
	Message   string `json:"message"`
	Action    string `json:"action"`
}

type chatResponse struct {
	SessionID        string              `json:"sessionId"`
	Messages         []domain.BotMessage `json:"messages"`
	ShouldEndSession bool                `json:"shouldEndSession"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler adapts API Gateway proxy events to the dialogue use case.
type Handler struct {
	dialogue DialogueUseCase
}

func NewHandler(dialogue DialogueUseCase) (*Handler, error) {
	if dialogue == nil {
		return nil, errors.New("handler: dialogue use case must not be nil")
	}
	return &Handler{dialogue: dialogue}, nil
}

func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := resolveCorrelationID(event.Headers)

	if event.HTTPMethod == http.MethodOptions {
		return jsonResponse(http.StatusOK, correlationID, struct{}{}), nil
	}

	// A body that does not parse degrades to an empty message rather than
	// failing the turn.
	var req chatRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		slog.Warn("malformed request body, treating as empty message", "correlationId", correlationID, "err", err)
		req = chatRequest{}
	}

	text := req.InputText
	if text == "" {
		text = req.Message
	}

	var (
		out usecase.TurnOutput
		err error
	)
	if req.Action == confirmSendAction {
		out, err = h.dialogue.ConfirmSend(ctx, req.SessionID)
	} else {
		out, err = h.dialogue.HandleTurn(ctx, usecase.TurnInput{SessionID: req.SessionID, Text: text})
	}
	if err != nil {
		slog.Error("turn failed", "correlationId", correlationID, "err", err)
		status, code := mapError(err)
		return jsonResponse(status, correlationID, errorResponse{Error: code}), nil
	}

	return jsonResponse(http.StatusOK, correlationID, chatResponse{
		SessionID:        out.SessionID,
		Messages:         out.Messages,
		ShouldEndSession: out.EndSession,
	}), nil
}

func mapError(err error) (int, string) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, string(usecase.ErrorInternal)
	}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, string(ucErr.Code)
	case usecase.ErrorSessionNotFound:
		return http.StatusNotFound, string(ucErr.Code)
	case usecase.ErrorUpstream:
		return http.StatusBadGateway, string(ucErr.Code)
	default:
		return http.StatusInternalServerError, string(usecase.ErrorInternal)
	}
}

func resolveCorrelationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, "x-correlation-id") && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func jsonResponse(status int, correlationID string, payload any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		body = []byte(`{"error":"INTERNAL_ERROR"}`)
		status = http.StatusInternalServerError
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                 "application/json",
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Headers": "*",
			"Access-Control-Allow-Methods": "OPTIONS,POST",
			"X-Correlation-Id":             correlationID,
		},
		Body: string(body),
	}
}
