package identity

import (
	"crypto/subtle"
	"net/http"

	"github.com/mrermin/ermin/internal/debug"
)

type pageData struct {
	ClientID  string
	ScriptURL string
	State     string
}

func (b *Bridge) validState(r *http.Request) bool {
	b.mutex.Lock()
	state := b.state
	b.mutex.Unlock()
	return state != "" && subtle.ConstantTimeCompare([]byte(r.PostFormValue("state")), []byte(state)) == 1
}

func (b *Bridge) handlePage(w http.ResponseWriter, r *http.Request) {
	b.mutex.Lock()
	data := &pageData{ClientID: b.opts.ClientID, ScriptURL: b.opts.ScriptURL, State: b.state}
	b.mutex.Unlock()

	w.Header().Set("Cache-Control", "no-store")
	if err := templates.ExecuteTemplate(w, "signin.html.tmpl", data); err != nil {
		debug.GetLogger().Error("rendering sign-in page", "err", err)
	}
}

func (b *Bridge) handleReady(w http.ResponseWriter, r *http.Request) {
	if !b.validState(r) {
		http.Error(w, "invalid state", http.StatusForbidden)
		return
	}

	b.mutex.Lock()
	if b.loaded != nil {
		select {
		case <-b.loaded:
		default:
			close(b.loaded)
		}
	}
	b.mutex.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (b *Bridge) handleCredential(w http.ResponseWriter, r *http.Request) {
	if !b.validState(r) {
		http.Error(w, "invalid state", http.StatusForbidden)
		return
	}
	credential := r.PostFormValue("credential")
	claims, err := Decode(credential)
	if err != nil {
		debug.GetLogger().Warn("rejecting identity assertion", "err", err)
		http.Error(w, "invalid credential", http.StatusBadRequest)
		return
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.server == nil {
		http.Error(w, "sign-in closed", http.StatusGone)
		return
	}
	// Keep only the latest assertion.
	select {
	case <-b.assertions:
	default:
	}
	b.assertions <- &Assertion{Credential: credential, Claims: claims}
	w.WriteHeader(http.StatusNoContent)
}
