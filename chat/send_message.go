package chat

import (
	"context"
	"strings"

	"github.com/mrermin/ermin/internal/debug"
	"github.com/mrermin/ermin/internal/types"
)

// Send appends the user message to the active chat and asks the inference
// endpoint for an answer. Only one send may be in flight per session.
// Inference failures become an assistant message carrying the error text.
func (m *Manager) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	m.mutex.Lock()
	if m.generating {
		m.mutex.Unlock()
		return ErrGenerating
	}
	chat, ok := m.chats[m.activeID]
	if !ok {
		m.mutex.Unlock()
		return ErrNoActiveChat
	}
	m.generating = true
	userMessage := types.NewUserMessage(text, m.now())
	chat.Messages = append(chat.Messages, userMessage)
	history := append([]*types.Message(nil), chat.Messages...)
	deriveTitle := len(chat.Messages) == 2
	chatID := chat.ID
	model := m.selectedModel
	token, authenticated := m.session()
	synced := chat.ServerSynced && authenticated
	m.mutex.Unlock()
	m.changed()

	defer m.update(func() {
		m.generating = false
		m.typing = false
	})

	if synced {
		m.mirror(ctx, "appendMessage", chatID, func(ctx context.Context) error {
			return m.backend.AppendMessage(ctx, token, chatID, userMessage)
		})
	}
	m.update(func() { m.typing = true })

	reply, err := m.inference.Complete(ctx, model, history)
	if err != nil {
		debug.GetLogger().Error("completing chat", "chat_id", chatID, "model", model, "err", err)
		m.appendMessage(chatID, types.NewAssistantMessage(ErrorPrefix+err.Error(), m.now()))
		return nil
	}

	assistantMessage := types.NewAssistantMessage(reply, m.now())
	if !m.appendMessage(chatID, assistantMessage) {
		return nil
	}
	if synced {
		m.mirror(ctx, "appendMessage", chatID, func(ctx context.Context) error {
			return m.backend.AppendMessage(ctx, token, chatID, assistantMessage)
		})
	}

	if deriveTitle {
		title := DeriveTitle(text)
		m.update(func() {
			if chat, ok := m.chats[chatID]; ok {
				chat.Title = title
			}
		})
		if synced {
			m.mirror(ctx, "updateChatTitle", chatID, func(ctx context.Context) error {
				return m.backend.UpdateChatTitle(ctx, token, chatID, title)
			})
		}
	}
	return nil
}

// appendMessage appends to the chat if it still exists.
func (m *Manager) appendMessage(chatID string, message *types.Message) bool {
	m.mutex.Lock()
	chat, ok := m.chats[chatID]
	if ok {
		chat.Messages = append(chat.Messages, message)
	}
	m.mutex.Unlock()
	if !ok {
		debug.GetLogger().Warn("dropping message for deleted chat", "chat_id", chatID)
		return false
	}
	m.changed()
	return true
}
