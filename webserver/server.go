// Package webserver serves the chats of the stored session and the premium page as HTML.
package webserver

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mrermin/ermin/app"
	"github.com/mrermin/ermin/internal/debug"
	"github.com/mrermin/ermin/internal/premium"
	"github.com/mrermin/ermin/internal/types"
	"github.com/mrermin/ermin/store"
)

//go:embed templates
var templatesFS embed.FS

const (
	timeFormat      = "Jan 2, 2006 3:04 PM"
	shutdownTimeout = 5 * time.Second
)

// Backend is the part of the backend client the pages read from.
type Backend interface {
	ListChats(ctx context.Context, token string) ([]*types.Chat, error)
	GetChat(ctx context.Context, token, chatID string) (*types.Chat, error)
	DeleteChat(ctx context.Context, token, chatID string) error
}

// Sessions loads the stored session. It is read on every request so a login
// from another command is picked up without a restart.
type Sessions interface {
	Load() (*store.Session, error)
}

type PageData struct {
	Title       string
	Query       string
	Account     *types.User
	LoginHint   bool
	Chat        *ChatViewModel
	Chats       []ChatViewModel
	CurrentPage int
	TotalPages  int
	Premium     *PremiumViewModel
}

type ChatViewModel struct {
	*types.Chat
	FormattedTime string
}

func newChatViewModel(chat *types.Chat) ChatViewModel {
	formatted := ""
	if activity := chat.LastActivity(); !activity.IsZero() {
		formatted = activity.Local().Format(timeFormat)
	}
	return ChatViewModel{Chat: chat, FormattedTime: formatted}
}

// Opts for the server.
type Opts struct {
	PageSize int
	// PayPal SDK URL including the client id.
	PayPalScriptURL string
}

type Server struct {
	opts     *Opts
	backend  Backend
	sessions Sessions
	tmpl     *template.Template
}

// NewServer parses the templates and returns a server.
func NewServer(opts *Opts, backend Backend, sessions Sessions) (*Server, error) {
	funcMap := sprig.HtmlFuncMap()
	funcMap["formatMessage"] = formatMessage
	funcMap["messageRole"] = messageRole
	funcMap["payLaterAttributes"] = payLaterAttributes
	funcMap["euro"] = premium.FormatEuro

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS,
		"templates/*.tmpl",
		"templates/includes/*.tmpl",
		"templates/pages/*.tmpl",
	)
	if err != nil {
		return nil, errors.Wrap(err, "parsing templates")
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}

	return &Server{
		opts:     opts,
		backend:  backend,
		sessions: sessions,
		tmpl:     tmpl,
	}, nil
}

// Handler returns the routes of the server. Cross-origin requests that
// change state, such as a form posted from another site, are rejected.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleInbox)
	mux.HandleFunc("GET /chat/{id}", s.handleChat)
	mux.HandleFunc("DELETE /chat/{id}", s.handleDeleteChat)
	mux.HandleFunc("POST /chat/{id}/delete", s.handleDeleteChat)
	mux.HandleFunc("GET /premium", s.handlePremium)
	return http.NewCrossOriginProtection().Handler(mux)
}

// Start serves on host and port until the context is done.
func (s *Server) Start(ctx context.Context, host string, port int) error {
	server := &http.Server{
		Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Server starting on http://%s\n", server.Addr)
	debug.GetLogger().Info("web viewer listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// NewServeCmd instantiates and returns the serve command.
func NewServeCmd(a *app.App) *cobra.Command {
	var opts struct {
		Host     string
		Port     int
		PageSize int
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a web interface for viewing chats",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := NewServer(&Opts{
				PageSize:        opts.PageSize,
				PayPalScriptURL: a.NewPayLater().ScriptURL(),
			}, a.Backend, a.Store)
			if err != nil {
				return err
			}
			if opts.Host != "127.0.0.1" && opts.Host != "localhost" && opts.Host != "::1" {
				debug.GetLogger().Warn("web viewer reachable beyond loopback, the stored session is exposed", "host", opts.Host)
			}
			return server.Start(cmd.Context(), opts.Host, opts.Port)
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", a.Config.Server.Host, "Interface to listen on")
	cmd.Flags().IntVarP(&opts.Port, "port", "p", a.Config.Server.Port, "Port to serve on")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", a.Config.Server.PageSize, "Number of chats to display")
	return cmd
}

// session returns the stored session, or nil if there is none.
func (s *Server) session() (*store.Session, error) {
	session, err := s.sessions.Load()
	if errors.Is(err, store.ErrAbsent) {
		return nil, nil
	}
	return session, err
}

func (s *Server) render(w http.ResponseWriter, status int, data *PageData) {
	var buffer bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buffer, "base", data); err != nil {
		debug.GetLogger().Error("rendering page", "title", data.Title, "err", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buffer.WriteTo(w)
}
