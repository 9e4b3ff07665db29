package backend

import (
	"context"
	"net/url"

	"github.com/mrermin/ermin/internal/types"
)

type titleRequest struct {
	Title string `json:"title"`
}

type appendMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func chatPath(chatID string) string {
	return "/chats/" + url.PathEscape(chatID)
}

// ListChats returns the chats of the session, most recently updated first.
func (c *Client) ListChats(ctx context.Context, token string) ([]*types.Chat, error) {
	var response []*chat
	if err := c.do(ctx, "GET", "/chats", token, nil, &response); err != nil {
		return nil, err
	}
	chats := make([]*types.Chat, 0, len(response))
	for _, item := range response {
		if item != nil {
			chats = append(chats, item.toChat())
		}
	}
	return chats, nil
}

// CreateChat creates an empty chat with the given title.
func (c *Client) CreateChat(ctx context.Context, token, title string) (*types.Chat, error) {
	response := &chat{}
	if err := c.do(ctx, "POST", "/chats", token, &titleRequest{Title: title}, response); err != nil {
		return nil, err
	}
	return response.toChat(), nil
}

// GetChat returns a single chat.
func (c *Client) GetChat(ctx context.Context, token, chatID string) (*types.Chat, error) {
	response := &chat{}
	if err := c.do(ctx, "GET", chatPath(chatID), token, nil, response); err != nil {
		return nil, err
	}
	return response.toChat(), nil
}

// UpdateChatTitle renames a chat.
func (c *Client) UpdateChatTitle(ctx context.Context, token, chatID, title string) error {
	return c.do(ctx, "PUT", chatPath(chatID), token, &titleRequest{Title: title}, nil)
}

// DeleteChat deletes a chat.
func (c *Client) DeleteChat(ctx context.Context, token, chatID string) error {
	return c.do(ctx, "DELETE", chatPath(chatID), token, nil, nil)
}

// AppendMessage appends a message to a chat. The backend stamps its own timestamp.
func (c *Client) AppendMessage(ctx context.Context, token, chatID string, message *types.Message) error {
	request := &appendMessageRequest{Role: string(message.Role), Content: message.Content}
	return c.do(ctx, "POST", chatPath(chatID)+"/messages", token, request, nil)
}
