package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"insurance-chatbot/internal/domain"
	"insurance-chatbot/internal/usecase"
)

type stubDialogue struct {
	turnOut    usecase.TurnOutput
	turnErr    error
	confirmOut usecase.TurnOutput
	confirmErr error

	turnInputs  []usecase.TurnInput
	confirmedID string
	confirms    int
}

func (s *stubDialogue) HandleTurn(_ context.Context, in usecase.TurnInput) (usecase.TurnOutput, error) {
	s.turnInputs = append(s.turnInputs, in)
	return s.turnOut, s.turnErr
}

func (s *stubDialogue) ConfirmSend(_ context.Context, sessionID string) (usecase.TurnOutput, error) {
	s.confirms++
	s.confirmedID = sessionID
	return s.confirmOut, s.confirmErr
}

func makeEvent(body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Body:       body,
	}
}

func parseBody[T any](t *testing.T, res events.APIGatewayProxyResponse) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal([]byte(res.Body), &out))
	return out
}

func newTestHandler(t *testing.T, stub *stubDialogue) *Handler {
	t.Helper()
	h, err := NewHandler(stub)
	require.NoError(t, err)
	return h
}

func TestNewHandler_NilUseCase(t *testing.T) {
	_, err := NewHandler(nil)
	require.Error(t, err)
}

func TestHandle_TurnHappyPath(t *testing.T) {
	stub := &stubDialogue{
		turnOut: usecase.TurnOutput{
			SessionID: "sess-1",
			Messages:  []domain.BotMessage{domain.TextMessage("What is the customer's full name?")},
		},
	}
	h := newTestHandler(t, stub)

	res, err := h.Handle(context.Background(), makeEvent(`{"sessionId":"sess-1","inputText":"motor"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/json", res.Headers["Content-Type"])
	require.Equal(t, "*", res.Headers["Access-Control-Allow-Origin"])

	require.Len(t, stub.turnInputs, 1)
	require.Equal(t, usecase.TurnInput{SessionID: "sess-1", Text: "motor"}, stub.turnInputs[0])

	body := parseBody[chatResponse](t, res)
	require.Equal(t, "sess-1", body.SessionID)
	require.Len(t, body.Messages, 1)
	require.Equal(t, "What is the customer's full name?", body.Messages[0].Text)
	require.False(t, body.ShouldEndSession)
}

func TestHandle_MessageFieldFallback(t *testing.T) {
	stub := &stubDialogue{}
	h := newTestHandler(t, stub)

	_, err := h.Handle(context.Background(), makeEvent(`{"sessionId":"sess-1","message":"life"}`))
	require.NoError(t, err)
	require.Equal(t, "life", stub.turnInputs[0].Text)

	// inputText wins when both fields are present.
	_, err = h.Handle(context.Background(), makeEvent(`{"sessionId":"sess-1","inputText":"motor","message":"life"}`))
	require.NoError(t, err)
	require.Equal(t, "motor", stub.turnInputs[1].Text)
}

func TestHandle_MalformedBodyDegradesToEmptyTurn(t *testing.T) {
	stub := &stubDialogue{turnOut: usecase.TurnOutput{SessionID: "new-session"}}
	h := newTestHandler(t, stub)

	res, err := h.Handle(context.Background(), makeEvent(`{{{not json`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, stub.turnInputs, 1)
	require.Equal(t, usecase.TurnInput{}, stub.turnInputs[0])
}

func TestHandle_ConfirmSendAction(t *testing.T) {
	stub := &stubDialogue{
		confirmOut: usecase.TurnOutput{
			SessionID:  "sess-1",
			Messages:   []domain.BotMessage{domain.TextMessage("Your quotation has been emailed. Reference: Q-123")},
			EndSession: true,
		},
	}
	h := newTestHandler(t, stub)

	res, err := h.Handle(context.Background(), makeEvent(`{"sessionId":"sess-1","action":"confirm_send"}`))
	require.NoError(t, err)
	require.Equal(t, 1, stub.confirms)
	require.Equal(t, "sess-1", stub.confirmedID)
	require.Empty(t, stub.turnInputs)

	body := parseBody[chatResponse](t, res)
	require.True(t, body.ShouldEndSession)
}

func TestHandle_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "invalid input",
			err:        &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "session id required"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "session not found",
			err:        &usecase.Error{Code: usecase.ErrorSessionNotFound, Reason: "no session"},
			wantStatus: http.StatusNotFound,
			wantCode:   "SESSION_NOT_FOUND",
		},
		{
			name:       "upstream",
			err:        &usecase.Error{Code: usecase.ErrorUpstream, Reason: "backend down"},
			wantStatus: http.StatusBadGateway,
			wantCode:   "UPSTREAM_ERROR",
		},
		{
			name:       "internal",
			err:        &usecase.Error{Code: usecase.ErrorInternal, Reason: "boom"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
		{
			name:       "untyped error",
			err:        errors.New("plain failure"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubDialogue{turnErr: tc.err}
			h := newTestHandler(t, stub)

			res, err := h.Handle(context.Background(), makeEvent(`{"sessionId":"sess-1","inputText":"hi"}`))
			require.NoError(t, err)
			require.Equal(t, tc.wantStatus, res.StatusCode)

			body := parseBody[errorResponse](t, res)
			require.Equal(t, tc.wantCode, body.Error)
		})
	}
}

func TestHandle_OptionsPreflight(t *testing.T) {
	stub := &stubDialogue{}
	h := newTestHandler(t, stub)

	res, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodOptions})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "OPTIONS,POST", res.Headers["Access-Control-Allow-Methods"])
	require.Empty(t, stub.turnInputs)
	require.Zero(t, stub.confirms)
}

func TestHandle_CorrelationID(t *testing.T) {
	stub := &stubDialogue{}
	h := newTestHandler(t, stub)

	event := makeEvent(`{"sessionId":"sess-1","inputText":"hi"}`)
	event.Headers = map[string]string{"X-Correlation-ID": "corr-42"}
	res, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "corr-42", res.Headers["X-Correlation-Id"])

	// Without the header a fresh ID is generated.
	res, err = h.Handle(context.Background(), makeEvent(`{"sessionId":"sess-1","inputText":"hi"}`))
	require.NoError(t, err)
	require.NotEmpty(t, res.Headers["X-Correlation-Id"])
	require.NotEqual(t, "corr-42", res.Headers["X-Correlation-Id"])
}
