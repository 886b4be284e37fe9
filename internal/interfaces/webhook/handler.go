package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"tickerbot/internal/application/port"
	"tickerbot/internal/infrastructure/line"
)

// Dispatcher is the single inbound interface the transport needs from the
// core.
type Dispatcher interface {
	Handle(ctx context.Context, subscriber, text string) string
}

// Handler terminates the LINE webhook: it verifies the request signature,
// acknowledges immediately, and hands each text event to the dispatcher on
// its own goroutine.
type Handler struct {
	channelSecret string
	dispatcher    Dispatcher
	messenger     port.Messenger
}

func NewHandler(channelSecret string, dispatcher Dispatcher, messenger port.Messenger) *Handler {
	return &Handler{
		channelSecret: channelSecret,
		dispatcher:    dispatcher,
		messenger:     messenger,
	}
}

// Routes builds the HTTP mux: the webhook endpoint plus a liveness line.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", h.handleWebhook)
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "tickerbot is running")
	})
	return mux
}

type webhookEvent struct {
	Type       string `json:"type"`
	ReplyToken string `json:"replyToken"`
	Source     struct {
		UserID string `json:"userId"`
	} `json:"source"`
	Message struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

type webhookBody struct {
	Events []webhookEvent `json:"events"`
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if !line.ValidateSignature(h.channelSecret, body, r.Header.Get("X-Line-Signature")) {
		log.Warn().Str("remote", r.RemoteAddr).Msg("webhook signature rejected")
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	var payload webhookBody
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	// Acknowledge before processing: the reply is sent asynchronously so a
	// slow quote lookup never stalls the platform's delivery.
	for _, ev := range payload.Events {
		if ev.Type != "message" || ev.Message.Type != "text" {
			continue
		}
		go h.process(context.WithoutCancel(r.Context()), ev)
	}

	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "OK")
}

// process runs one event to completion. Failures stay inside the goroutine.
func (h *Handler) process(ctx context.Context, ev webhookEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Any("panic", rec).Str("user", ev.Source.UserID).Msg("event handler panicked")
		}
	}()

	reply := h.dispatcher.Handle(ctx, ev.Source.UserID, ev.Message.Text)
	if reply == "" {
		return
	}
	if err := h.messenger.Reply(ctx, ev.ReplyToken, reply); err != nil {
		log.Error().Err(err).Str("user", ev.Source.UserID).Msg("reply failed")
	}
}
