package webserver

import (
	"net/http"

	"github.com/mrermin/ermin/internal/backend"
	"github.com/mrermin/ermin/internal/debug"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	session, err := s.session()
	if err != nil {
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}
	if session == nil {
		s.render(w, http.StatusUnauthorized, &PageData{Title: "Chat", LoginHint: true})
		return
	}

	chat, err := s.backend.GetChat(r.Context(), session.Token, r.PathValue("id"))
	if backend.IsNotFound(err) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	viewModel := newChatViewModel(chat)
	data := &PageData{
		Title:   chat.Title,
		Account: session.User,
		Chat:    &viewModel,
	}
	s.render(w, http.StatusOK, data)
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	session, err := s.session()
	if err != nil || session == nil {
		http.Error(w, "Not logged in", http.StatusUnauthorized)
		return
	}

	chatID := r.PathValue("id")
	if err := s.backend.DeleteChat(r.Context(), session.Token, chatID); err != nil {
		debug.GetLogger().Error("deleting chat", "chat_id", chatID, "err", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
