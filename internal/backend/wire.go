package backend

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/mrermin/ermin/internal/types"
)

// The backend serializes naive UTC datetimes without a zone designator.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

type timestamp time.Time

func (t *timestamp) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		*t = timestamp(time.Time{})
		return nil
	}
	var err error
	for _, layout := range timestampLayouts {
		var parsed time.Time
		if parsed, err = time.ParseInLocation(layout, value, time.UTC); err == nil {
			*t = timestamp(parsed.UTC())
			return nil
		}
	}
	return err
}

type message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp timestamp `json:"timestamp"`
}

type chat struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	Messages  []*message `json:"messages"`
	CreatedAt timestamp  `json:"created_at"`
	UpdatedAt timestamp  `json:"updated_at"`
}

type user struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
	Verified bool   `json:"verified"`
}

func (c *chat) toChat() *types.Chat {
	result := &types.Chat{
		ID:           c.ID,
		Title:        c.Title,
		Messages:     make([]*types.Message, 0, len(c.Messages)),
		ServerSynced: true,
	}
	for _, m := range c.Messages {
		if m == nil {
			continue
		}
		result.Messages = append(result.Messages, &types.Message{
			Role:      types.Role(m.Role),
			Content:   m.Content,
			Timestamp: time.Time(m.Timestamp),
		})
	}
	return result
}

func (u *user) toUser() *types.User {
	return &types.User{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Picture:  u.Picture,
		Verified: u.Verified,
	}
}
