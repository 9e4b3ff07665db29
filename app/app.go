// Package app wires the clients, the session store and the chat manager from a configuration.
package app

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/mrermin/ermin/chat"
	"github.com/mrermin/ermin/internal/backend"
	"github.com/mrermin/ermin/internal/configuration"
	"github.com/mrermin/ermin/internal/identity"
	"github.com/mrermin/ermin/internal/inference"
	"github.com/mrermin/ermin/internal/paylater"
	"github.com/mrermin/ermin/store"
)

// App holds the dependencies shared by the commands.
type App struct {
	Config    *configuration.Config
	Store     *store.Store
	Backend   *backend.Client
	Inference *inference.Client
}

// New instantiates and returns an app. Close must be called to release the store.
func New(config *configuration.Config) (*App, error) {
	s, err := store.New(config.Database, config.BackendURL)
	if err != nil {
		return nil, errors.Wrap(err, "opening session store")
	}

	return &App{
		Config:    config,
		Store:     s,
		Backend:   backend.New(config.BackendURL, config.RequestTimeoutDuration()),
		Inference: inference.New(config.InferenceURLResource, config.InferenceAPIKey),
	}, nil
}

// NewManager returns a chat manager on the app's clients.
func (a *App) NewManager() *chat.Manager {
	return chat.New(a.Backend, a.Inference, a.Store)
}

// NewSignIn returns the bridge serving the Google sign-in page.
func (a *App) NewSignIn() *identity.Bridge {
	return identity.NewBridge(&identity.Opts{
		ClientID:      a.Config.Identity.GoogleClientID,
		ScriptURL:     a.Config.Identity.ScriptURL,
		ListenAddress: a.Config.Identity.ListenAddress,
		Timeout:       a.Config.Identity.SignInTimeoutDuration(),
	})
}

// NewPayLater returns the financing-message widget.
func (a *App) NewPayLater() *paylater.Widget {
	opts := &paylater.Opts{
		ClientID: a.Config.PayPal.ClientID,
		SDKURL:   a.Config.PayPal.SDKURL,
		Interval: a.Config.PayPal.PollInterval(),
		Attempts: a.Config.PayPal.PollAttempts,
	}
	return paylater.New(opts, &http.Client{Timeout: a.Config.RequestTimeoutDuration()})
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}
