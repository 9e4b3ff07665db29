// Package history keeps what the user sent from the chat input and walks back through it.
package history

import (
	"strings"
	"sync"

	"github.com/mrermin/ermin/internal/debug"
)

// Limit is the number of entries kept, in memory and in the backing store.
const Limit = 1000

// Backing persists entries across runs.
type Backing interface {
	History(limit int) ([]string, error)
	AppendHistory(entry string, limit int) error
}

// History is a list of sent inputs with a cursor. The cursor equals the
// number of entries while the user edits a fresh draft.
type History struct {
	mutex   sync.Mutex
	backing Backing
	entries []string
	cursor  int
	draft   string
}

// New loads the entries of backing. A nil backing keeps history in memory.
func New(backing Backing) *History {
	h := &History{backing: backing}
	if backing != nil {
		entries, err := backing.History(Limit)
		if err != nil {
			debug.GetLogger().Warn("loading input history", "err", err)
		}
		h.entries = entries
	}
	h.cursor = len(h.entries)
	return h
}

// Entries returns a copy of the entries, oldest first.
func (h *History) Entries() []string {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return append([]string(nil), h.entries...)
}

// Add records a sent input and ends any navigation. Blank inputs and
// repeats of the newest entry are not recorded.
func (h *History) Add(entry string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	defer h.rewind()

	if strings.TrimSpace(entry) == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		return
	}
	h.entries = append(h.entries, entry)
	if len(h.entries) > Limit {
		h.entries = h.entries[len(h.entries)-Limit:]
	}
	if h.backing == nil {
		return
	}
	if err := h.backing.AppendHistory(entry, Limit); err != nil {
		debug.GetLogger().Warn("saving input history", "err", err)
	}
}

// Previous moves to the older entry. The first step remembers draft so Next
// can bring it back. Returns false at the oldest entry.
func (h *History) Previous(draft string) (string, bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	switch {
	case len(h.entries) == 0:
		return "", false
	case h.cursor == 0:
		return h.entries[0], false
	case h.cursor == len(h.entries):
		h.draft = draft
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Next moves to the newer entry, ending on the remembered draft. Returns false
// when not navigating.
func (h *History) Next() (string, bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.cursor >= len(h.entries) {
		return "", false
	}
	h.cursor++
	if h.cursor == len(h.entries) {
		draft := h.draft
		h.draft = ""
		return draft, true
	}
	return h.entries[h.cursor], true
}

// Reset ends navigation without changing the entries.
func (h *History) Reset() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.rewind()
}

func (h *History) rewind() {
	h.cursor = len(h.entries)
	h.draft = ""
}
