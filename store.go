// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package manilaplugin

import (
	"github.com/juju/errors"
)

// Scope identifies one conversation held over the relation. A subordinate
// holds a single conversation with its principal (GlobalScope); a
// principal holds one conversation per subordinate unit, scoped by the
// remote unit name.
type Scope string

// GlobalScope addresses the single conversation of a globally-scoped role.
const GlobalScope Scope = "global"

// Wire field names, shared by both roles. The underscore prefix is part of
// the on-the-wire protocol and must not change.
const (
	nameField               = "_name"
	authenticationDataField = "_authentication_data"
	configurationDataField  = "_configuration_data"
	availableField          = "_available"
)

// ErrConversationInert reports that an operation targeted a conversation
// whose scope has already been withdrawn by the substrate. Flag clears
// treat this as an expected no-op condition rather than a failure.
const ErrConversationInert = errors.ConstError("conversation is inert")

// Store is the relation-data mirror for one end of the relation, kept in
// sync with the remote side by the coordination substrate. Local fields
// are private bookkeeping for the owning role; remote fields written here
// become visible to the other end, and remote reads reflect what the
// other end last wrote.
//
// The substrate populates the mirror before each hook is dispatched, and
// dispatches one hook at a time, so implementations need no internal
// consistency beyond plain map semantics.
type Store interface {
	// Scopes returns every conversation scope this end has ever seen,
	// in first-contact order. Scopes of departed units remain listed;
	// Live distinguishes them.
	Scopes() []Scope

	// Live reports whether the scope is still backed by the substrate.
	Live(scope Scope) bool

	Local(scope Scope, field string) (string, bool)
	SetLocal(scope Scope, field, value string)
	RemoveLocal(scope Scope, field string)

	Remote(scope Scope, field string) (string, bool)
	SetRemote(scope Scope, field, value string)
}

// Conversation is a handle on the exchange state with one remote unit.
type Conversation struct {
	scope Scope
	store Store
}

// Scope returns the conversation's scope.
func (c Conversation) Scope() Scope {
	return c.scope
}

// Live reports whether the conversation's scope is still backed by the
// substrate. Inert conversations are skipped by status recomputation but
// are never forgotten, since the substrate may keep reporting them.
func (c Conversation) Live() bool {
	return c.store.Live(c.scope)
}

// Local returns a locally-owned field value.
func (c Conversation) Local(field string) (string, bool) {
	return c.store.Local(c.scope, field)
}

// SetLocal writes a locally-owned field.
func (c Conversation) SetLocal(field, value string) {
	c.store.SetLocal(c.scope, field, value)
}

// RemoveLocal deletes a locally-owned field.
func (c Conversation) RemoveLocal(field string) {
	c.store.RemoveLocal(c.scope, field)
}

// Remote returns a field last written by the other end.
func (c Conversation) Remote(field string) (string, bool) {
	return c.store.Remote(c.scope, field)
}

// SetRemote writes a field for the other end to read.
func (c Conversation) SetRemote(field, value string) {
	c.store.SetRemote(c.scope, field, value)
}
