package line

import (
	"context"
	"log"
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// EventHandler is called once per supported message event in a delivery.
type EventHandler func(ctx context.Context, ev Event)

type WebhookHandler struct {
	channelSecret string
	onEvent       EventHandler
}

func NewWebhookHandler(channelSecret string, onEvent EventHandler) *WebhookHandler {
	return &WebhookHandler{
		channelSecret: channelSecret,
		onEvent:       onEvent,
	}
}

// HandleCallback processes one signed webhook delivery. ParseRequest
// verifies the X-Line-Signature header before any event is routed; a bad
// signature or malformed body rejects the whole delivery with 400 and no
// reply is sent.
func (h *WebhookHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	cb, err := webhook.ParseRequest(h.channelSecret, r)
	if err != nil {
		log.Printf("webhook: rejecting delivery: %v", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	// Events in one delivery are processed sequentially; each produces
	// its own independent reply send.
	for _, e := range cb.Events {
		msgEvent, ok := e.(webhook.MessageEvent)
		if !ok {
			continue
		}
		ev, ok := FromWebhook(msgEvent)
		if !ok {
			continue
		}
		h.onEvent(r.Context(), ev)
	}

	w.WriteHeader(http.StatusOK)
}
