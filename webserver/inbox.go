package webserver

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/mrermin/ermin/internal/types"
)

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	session, err := s.session()
	if err != nil {
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}
	if session == nil {
		s.render(w, http.StatusUnauthorized, &PageData{Title: "Inbox", LoginHint: true})
		return
	}

	chats, err := s.backend.ListChats(r.Context(), session.Token)
	if err != nil {
		http.Error(w, "Failed to list chats", http.StatusBadGateway)
		return
	}
	chats = searchChats(chats, query)
	sortByActivity(chats)

	totalPages := max((len(chats)+s.opts.PageSize-1)/s.opts.PageSize, 1)
	page = min(page, totalPages)
	start := (page - 1) * s.opts.PageSize
	end := min(start+s.opts.PageSize, len(chats))

	chatViews := make([]ChatViewModel, 0, end-start)
	for _, chat := range chats[start:end] {
		chatViews = append(chatViews, newChatViewModel(chat))
	}

	data := &PageData{
		Title:       "Inbox",
		Query:       query,
		Account:     session.User,
		Chats:       chatViews,
		CurrentPage: page,
		TotalPages:  totalPages,
	}
	s.render(w, http.StatusOK, data)
}

// searchChats keeps the chats whose title or messages contain the query, ignoring case.
func searchChats(chats []*types.Chat, query string) []*types.Chat {
	if query == "" {
		return chats
	}
	query = strings.ToLower(query)
	var matches []*types.Chat
	for _, chat := range chats {
		if strings.Contains(strings.ToLower(chat.Title), query) {
			matches = append(matches, chat)
			continue
		}
		for _, message := range chat.Messages {
			if strings.Contains(strings.ToLower(message.Content), query) {
				matches = append(matches, chat)
				break
			}
		}
	}
	return matches
}

// sortByActivity orders chats by their latest message, most recent first.
func sortByActivity(chats []*types.Chat) {
	slices.SortStableFunc(chats, func(a, b *types.Chat) int {
		return b.LastActivity().Compare(a.LastActivity())
	})
}
