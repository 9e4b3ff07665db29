package tui

import (
	"github.com/mrermin/ermin/internal/identity"
	"github.com/mrermin/ermin/internal/types"
)

// stateChangedMsg is sent whenever the chat manager state changes.
type stateChangedMsg struct{}

type startupDoneMsg struct{}

type signInMountedMsg struct {
	url string
	err error
}

type signInUnmountedMsg struct{}

type scriptCapabilityMsg struct {
	url        string
	capability types.Capability
}

type assertionMsg struct {
	url       string
	assertion *identity.Assertion
	err       error
}

type loginDoneMsg struct {
	err error
}

type sendDoneMsg struct {
	input string
	err   error
}

// opDoneMsg reports the outcome of a chat operation (new, delete).
type opDoneMsg struct {
	op  string
	err error
}

type payLaterMsg struct {
	capability types.Capability
}
