package line

import "github.com/line/line-bot-sdk-go/v8/linebot/webhook"

// EventKind discriminates the inbound message variants the bot handles.
type EventKind string

const (
	KindText     EventKind = "text"
	KindLocation EventKind = "location"
	KindImage    EventKind = "image"
)

// Event is one inbound message event, decoupled from the SDK webhook
// types so the router can be driven by fakes in tests. It is built from
// the parsed webhook body and discarded once the reply is sent.
type Event struct {
	ReplyToken string
	Kind       EventKind

	// KindText
	Text string

	// KindLocation
	Latitude  float64
	Longitude float64

	// KindImage: opaque handle used to fetch the binary content.
	MessageID string
}

// FromWebhook converts an SDK message event into an Event. The second
// return value is false for message types the bot does not handle
// (stickers, video, audio, files).
func FromWebhook(e webhook.MessageEvent) (Event, bool) {
	switch m := e.Message.(type) {
	case webhook.TextMessageContent:
		return Event{ReplyToken: e.ReplyToken, Kind: KindText, Text: m.Text}, true
	case webhook.LocationMessageContent:
		return Event{
			ReplyToken: e.ReplyToken,
			Kind:       KindLocation,
			Latitude:   m.Latitude,
			Longitude:  m.Longitude,
		}, true
	case webhook.ImageMessageContent:
		return Event{ReplyToken: e.ReplyToken, Kind: KindImage, MessageID: m.Id}, true
	default:
		return Event{}, false
	}
}
