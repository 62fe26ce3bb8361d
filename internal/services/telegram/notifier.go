package telegram

import (
	"context"

	"lottery-hub/internal/models"
)

// ChatNotifier delivers notifications to one chat.
type ChatNotifier struct {
	client *Client
	chatID string
}

func NewChatNotifier(client *Client, chatID string) *ChatNotifier {
	return &ChatNotifier{client: client, chatID: chatID}
}

func (n *ChatNotifier) Notify(ctx context.Context, notification models.Notification) error {
	if notification.Image != nil {
		return n.client.SendPhoto(ctx, n.chatID, notification.Text, *notification.Image)
	}
	return n.client.SendMessage(ctx, n.chatID, notification.Text)
}
