// Package identity serves the Google sign-in page on a loopback address and hands
// the resulting identity assertion to the terminal.
package identity

import (
	"context"
	"embed"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mrermin/ermin/internal/debug"
	"github.com/mrermin/ermin/internal/types"
)

//go:embed templates
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html.tmpl"))

// Opts for the bridge.
type Opts struct {
	ClientID      string
	ScriptURL     string
	ListenAddress string
	// How long the page may take to report the identity script as loaded.
	Timeout time.Duration
}

// Bridge is a one-shot sign-in surface. Mount starts it, Unmount tears it down.
type Bridge struct {
	opts *Opts

	mutex      sync.Mutex
	state      string
	server     *http.Server
	url        string
	capability types.Capability
	loaded     chan struct{}
	resolved   chan struct{}
	assertions chan *Assertion
}

// NewBridge instantiates and returns a new bridge.
func NewBridge(opts *Opts) *Bridge {
	return &Bridge{opts: opts}
}

// Mount starts serving the sign-in page and returns its URL. Mounting twice returns the same URL.
func (b *Bridge) Mount(ctx context.Context) (string, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.server != nil {
		return b.url, nil
	}

	var listenConfig net.ListenConfig
	listener, err := listenConfig.Listen(ctx, "tcp", b.opts.ListenAddress)
	if err != nil {
		return "", errors.Wrap(err, "listening for sign-in page")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", b.handlePage)
	mux.HandleFunc("POST /ready", b.handleReady)
	mux.HandleFunc("POST /credential", b.handleCredential)

	b.state = uuid.NewString()
	b.capability = types.CapabilityPending
	b.loaded = make(chan struct{})
	b.resolved = make(chan struct{})
	b.assertions = make(chan *Assertion, 1)
	b.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	b.url = "http://" + listener.Addr().String() + "/"

	go func(server *http.Server) {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			debug.GetLogger().Error("serving sign-in page", "err", err)
		}
	}(b.server)
	go b.awaitScript(b.loaded, b.resolved)

	debug.GetLogger().Info("sign-in page mounted", "url", b.url)
	return b.url, nil
}

// awaitScript resolves the capability once the page reports the script loaded, or after the timeout.
func (b *Bridge) awaitScript(loaded, resolved chan struct{}) {
	timer := time.NewTimer(b.opts.Timeout)
	defer timer.Stop()

	capability := types.CapabilityPresent
	select {
	case <-loaded:
	case <-timer.C:
		capability = types.CapabilityUnavailable
		debug.GetLogger().Warn("identity script never reported loaded", "timeout", b.opts.Timeout)
	case <-resolved:
		return
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.resolved != resolved || b.capability != types.CapabilityPending {
		return
	}
	b.capability = capability
	close(resolved)
}

// Ready blocks until the identity script is present or has timed out.
func (b *Bridge) Ready(ctx context.Context) types.Capability {
	b.mutex.Lock()
	resolved := b.resolved
	b.mutex.Unlock()
	if resolved == nil {
		return types.CapabilityUnavailable
	}

	select {
	case <-resolved:
	case <-ctx.Done():
		return types.CapabilityPending
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.capability
}

// Wait blocks until the user completes sign-in.
func (b *Bridge) Wait(ctx context.Context) (*Assertion, error) {
	b.mutex.Lock()
	assertions := b.assertions
	b.mutex.Unlock()
	if assertions == nil {
		return nil, errors.New("sign-in page is not mounted")
	}

	select {
	case assertion, ok := <-assertions:
		if !ok {
			return nil, errors.New("sign-in page was unmounted")
		}
		return assertion, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Unmount stops serving the sign-in page.
func (b *Bridge) Unmount(ctx context.Context) error {
	b.mutex.Lock()
	server := b.server
	if server == nil {
		b.mutex.Unlock()
		return nil
	}
	b.server = nil
	b.url = ""
	if b.capability == types.CapabilityPending {
		b.capability = types.CapabilityUnavailable
		close(b.resolved)
	}
	close(b.assertions)
	b.mutex.Unlock()

	return server.Shutdown(ctx)
}
