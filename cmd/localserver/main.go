package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"insurance-chatbot/internal/integrations/quoting"
	"insurance-chatbot/internal/repository"
	"insurance-chatbot/internal/schema"
	"insurance-chatbot/internal/usecase"
)

// envTokenGetter satisfies the quoting client's paramstore dependency from
// local environment variables instead of SSM.
type envTokenGetter struct{}

func (envTokenGetter) GetParameter(_ context.Context, _ string) (string, error) {
	token := os.Getenv("BACKEND_API_TOKEN")
	if token == "" {
		token = "local-dev"
	}
	raw, err := json.Marshal(map[string]string{"token": token})
	return string(raw), err
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	InputText string `json:"inputText"`
	Message   string `json:"message"`
	Action    string `json:"action"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using process environment")
	}

	backendURL := envDefault("BACKEND_URL", "http://localhost:8080")
	port := envDefault("PORT", "3001")

	backend, err := quoting.NewClient(backendURL, envTokenGetter{}, "/insurance-chatbot")
	if err != nil {
		slog.Error("failed to create quoting client", "err", err)
		os.Exit(1)
	}

	// Sessions live in memory for local development; restart the server to
	// reset them.
	dialogue, err := usecase.NewDialogueService(repository.NewMemoryStore(), backend, schema.Default())
	if err != nil {
		slog.Error("failed to create dialogue service", "err", err)
		os.Exit(1)
	}

	engine := gin.Default()
	engine.SetTrustedProxies(nil)
	engine.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"OPTIONS", "GET", "POST"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Correlation-Id"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	engine.POST("/chatbot", func(c *gin.Context) {
		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			req = chatRequest{}
		}
		text := req.InputText
		if text == "" {
			text = req.Message
		}

		var (
			out     usecase.TurnOutput
			turnErr error
		)
		if req.Action == "confirm_send" {
			out, turnErr = dialogue.ConfirmSend(c.Request.Context(), req.SessionID)
		} else {
			out, turnErr = dialogue.HandleTurn(c.Request.Context(), usecase.TurnInput{SessionID: req.SessionID, Text: text})
		}
		if turnErr != nil {
			slog.Error("turn failed", "err", turnErr)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL_ERROR"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"sessionId":        out.SessionID,
			"messages":         out.Messages,
			"shouldEndSession": out.EndSession,
		})
	})

	slog.Info("local chatbot server listening", "port", port, "backend", backendURL)
	if err := engine.Run(":" + port); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
