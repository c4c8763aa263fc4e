package line

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Replier sends one reply per reply token through the Messaging API.
type Replier struct {
	api *messaging_api.MessagingApiAPI
}

func NewReplier(channelToken string) (*Replier, error) {
	api, err := messaging_api.NewMessagingApiAPI(channelToken)
	if err != nil {
		return nil, fmt.Errorf("creating messaging api: %w", err)
	}
	return &Replier{api: api}, nil
}

func (r *Replier) Reply(replyToken string, msgs []messaging_api.MessageInterface) error {
	_, err := r.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   msgs,
	})
	if err != nil {
		return fmt.Errorf("reply message: %w", err)
	}
	return nil
}

// MediaFetcher downloads message binary content from the blob endpoint.
type MediaFetcher struct {
	blob *messaging_api.MessagingApiBlobAPI
}

func NewMediaFetcher(channelToken string) (*MediaFetcher, error) {
	blob, err := messaging_api.NewMessagingApiBlobAPI(channelToken)
	if err != nil {
		return nil, fmt.Errorf("creating blob api: %w", err)
	}
	return &MediaFetcher{blob: blob}, nil
}

func (f *MediaFetcher) Fetch(_ context.Context, messageID string) ([]byte, error) {
	resp, err := f.blob.GetMessageContent(messageID)
	if err != nil {
		return nil, fmt.Errorf("get message content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("blob status %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	return data, nil
}
