// Package handlers contains the HTTP handlers for the webhook server.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/Beny9313/whatsapp-ai-bot/internal/agent"
	"github.com/Beny9313/whatsapp-ai-bot/internal/config"
	"github.com/Beny9313/whatsapp-ai-bot/internal/logger"
	"github.com/Beny9313/whatsapp-ai-bot/internal/twilio"
)

// User-facing messages. Every pipeline outcome maps to one of these; raw
// errors never reach WhatsApp.
const (
	GreetingMessage = "👋 Hi! I'm your SAP CX assistant. Ask me anything about Service Cloud, FSM, Sales Cloud, CPQ, or CPI integration!"

	AgentErrorMessage = "I encountered an issue processing your question. Please try rephrasing it or contact support."

	TechnicalDifficultiesMessage = "Sorry, I'm experiencing technical difficulties. Please try again in a moment."

	EmptyAnswerMessage = "Sorry, I could not process your request."

	InternalErrorMessage = "Sorry, I encountered a technical error. Our team has been notified."
)

// Agent is the slice of the pipeline the webhook needs
type Agent interface {
	Run(ctx context.Context, query, userID string) (*agent.State, error)
}

// SignatureValidator checks incoming request signatures
type SignatureValidator interface {
	ValidateRequest(r *http.Request, publicURL string) bool
}

// WebhookHandler processes incoming WhatsApp messages from Twilio
type WebhookHandler struct {
	agent     Agent
	validator SignatureValidator
	cfg       *config.Config
}

// NewWebhookHandler creates the webhook handler
func NewWebhookHandler(a Agent, validator SignatureValidator, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{agent: a, validator: validator, cfg: cfg}
}

// Handle serves POST /webhook. The reply is always TwiML with status 200;
// only an outer failure (signature check aside) produces a non-200.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Twilio.VerifySignature {
		if h.validator == nil || !h.validator.ValidateRequest(r, h.cfg.Server.PublicURL) {
			logger.Warnw("invalid twilio signature",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	if err := r.ParseForm(); err != nil {
		logger.Errorw("failed to parse webhook form", "error", err)
		writeTwiML(w, http.StatusInternalServerError, InternalErrorMessage)
		return
	}

	body := strings.TrimSpace(r.PostForm.Get("Body"))
	from := r.PostForm.Get("From")

	logger.Infow("message received",
		"from", from,
		"body_length", len(body),
	)

	responseText := h.respond(r.Context(), body, from)

	logger.Infow("sending reply",
		"to", from,
		"reply_length", len(responseText),
	)

	writeTwiML(w, http.StatusOK, responseText)
}

func (h *WebhookHandler) respond(ctx context.Context, body, from string) string {
	if body == "" {
		return GreetingMessage
	}

	ctx, cancel := context.WithTimeout(ctx, h.cfg.Server.AgentTimeout())
	defer cancel()

	state, err := h.agent.Run(ctx, body, from)
	if err != nil {
		logger.Errorw("agent execution failed", "error", err, "from", from)
		return TechnicalDifficultiesMessage
	}

	logger.Infow("agent finished",
		"from", from,
		"primary_domain", state.PrimaryDomain,
		"confidence", state.Confidence,
	)

	if state.Failed() {
		logger.Errorw("agent reported error", "error", state.Err, "from", from)
		return AgentErrorMessage
	}
	if state.Answer == "" {
		return EmptyAnswerMessage
	}
	return state.Answer
}

// writeTwiML renders a TwiML message response
func writeTwiML(w http.ResponseWriter, status int, message string) {
	out, err := twilio.MessagingResponse(message)
	if err != nil {
		logger.Errorw("failed to render twiml", "error", err)
		http.Error(w, InternalErrorMessage, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", twilio.ContentType)
	w.WriteHeader(status)
	w.Write(out)
}
