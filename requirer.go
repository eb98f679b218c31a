// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package manilaplugin

import (
	"reflect"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/kr/pretty"

	"github.com/openstack/charm-interface-manila-plugin/hooks"
)

// RequirerConfig holds the collaborators a Requirer needs.
type RequirerConfig struct {
	// Relation is the local relation name, used to namespace the flags
	// exposed to the charm, e.g. "manila-plugin".
	Relation string

	// Store is this end's relation-data mirror.
	Store Store

	// Logger is optional; a loggo logger is used when nil.
	Logger Logger
}

// Validate returns an error if the config cannot drive a Requirer.
func (config RequirerConfig) Validate() error {
	if config.Relation == "" {
		return errors.NotValidf("empty Relation")
	}
	if config.Store == nil {
		return errors.NotValidf("nil Store")
	}
	return nil
}

// Requirer is the principal end of the manila-plugin relation. It pushes
// service credentials to each subordinate plugin and collects the
// configuration payloads they answer with, one conversation per
// subordinate unit. Multiple backends are supported over the one
// relation; payloads are amalgamated keyed by the name each subordinate
// declares.
type Requirer struct {
	relation string
	store    Store
	flags    *Flags
	logger   Logger
}

// NewRequirer returns a Requirer backed by config, or an error.
func NewRequirer(config RequirerConfig) (*Requirer, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &Requirer{
		relation: config.Relation,
		store:    config.Store,
		flags:    NewFlags(config.Relation),
		logger:   ensureLogger(config.Logger, "requirer"),
	}, nil
}

// HandleHook dispatches one relation lifecycle event. Every event ends in
// a full status recomputation across all live conversations; departure
// needs no special casing because the recomputation's conversation count
// handles the empty relation.
func (r *Requirer) HandleHook(info hooks.Info) error {
	if err := info.Validate(); err != nil {
		return errors.Trace(err)
	}
	if info.Kind == hooks.RelationJoined {
		r.flags.Raise(Connected)
	}
	r.UpdateStatus()
	return nil
}

// Connected reports whether at least one subordinate has joined.
func (r *Requirer) Connected() bool {
	return r.flags.Raised(Connected)
}

// Available reports whether at least one subordinate has declared a name
// and produced configuration data.
func (r *Requirer) Available() bool {
	return r.flags.Raised(Available)
}

// Changed reports whether any conversation's availability transitioned in
// the last recomputation, in either direction. It is only ever raised by a
// cycle that evaluated availability, and never by one with zero live
// conversations.
func (r *Requirer) Changed() bool {
	return r.flags.Raised(Changed)
}

// UpdateStatus recomputes the aggregate flags. A conversation counts as
// available once its remote side has declared both a name and a
// configuration envelope; transitions are detected against a
// per-conversation cache so that changed reflects genuine deltas across
// dispatch cycles. An empty relation clears connected and changed.
func (r *Requirer) UpdateStatus() {
	var countAvailable, countChanged, countConversations int
	for _, conversation := range r.conversations() {
		if !conversation.Live() {
			continue
		}
		countConversations++
		_, hasName := conversation.Remote(nameField)
		_, hasConfiguration := conversation.Remote(configurationDataField)
		available := hasName && hasConfiguration

		cached, _ := conversation.Local(availableField)
		if available != (cached == "true") {
			if available {
				conversation.SetLocal(availableField, "true")
			} else {
				conversation.SetLocal(availableField, "false")
			}
			countChanged++
		}
		if available {
			countAvailable++
		}
	}

	if countChanged > 0 {
		r.flags.Raise(Changed)
	}
	if countAvailable > 0 {
		r.flags.Raise(Available)
	} else {
		r.flags.Lower(Available)
	}
	if countConversations == 0 {
		r.flags.Lower(Connected)
		r.flags.Lower(Changed)
	}
	if r.logger.IsTraceEnabled() {
		r.logger.Tracef("%d conversations (%d available, %d changed); flags now %# v",
			countConversations, countAvailable, countChanged, pretty.Formatter(r.flags.Snapshot()))
	}
}

// ClearChanged lowers the changed flag once the charm has consumed the
// change. If the relation has no live conversations left, the flag is
// lowered anyway and ErrConversationInert is returned; callers that only
// care about the flag may ignore it.
func (r *Requirer) ClearChanged() error {
	r.flags.Lower(Changed)
	for _, conversation := range r.conversations() {
		if conversation.Live() {
			return nil
		}
	}
	return ErrConversationInert
}

// SetAuthenticationData sends service credentials to the subordinates.
// If name is non-empty only the subordinate that declared that name
// receives them. The expected key set is checked softly: a mismatch is
// logged at warning level but the data is sent regardless, since the
// subordinate may cope with partial credentials.
//
// Writes are idempotent: a conversation whose cached credentials already
// match value is skipped, so redundant pushes neither hit the transport
// nor spuriously re-trigger the subordinate's change detection.
func (r *Requirer) SetAuthenticationData(value map[string]string, name string) error {
	passed := set.NewStrings()
	for key := range value {
		passed.Add(key)
	}
	if !passed.Difference(authenticationKeys).IsEmpty() ||
		!authenticationKeys.Difference(passed).IsEmpty() {
		r.logger.Warningf(
			"setting authentication data; there may be missing or misspelt keys: passed: %v",
			passed.SortedValues())
	}
	raw, err := encodeAuthentication(value)
	if err != nil {
		return errors.Trace(err)
	}
	for _, conversation := range r.conversations() {
		if !conversation.Live() {
			continue
		}
		if name != "" {
			declared, ok := conversation.Remote(nameField)
			if !ok || declared != name {
				continue
			}
		}
		if cached, ok := conversation.Local(authenticationDataField); ok {
			existing, err := decodeAuthentication(cached)
			if err == nil && reflect.DeepEqual(existing, value) {
				continue
			}
		}
		conversation.SetLocal(authenticationDataField, raw)
		conversation.SetRemote(authenticationDataField, raw)
		r.logger.Debugf("sent authentication data to %q", conversation.Scope())
	}
	return nil
}

// Names returns, in conversation order, the name of every live
// conversation that has declared both a name and configuration data. The
// result is not deduplicated.
func (r *Requirer) Names() []string {
	var names []string
	for _, conversation := range r.conversations() {
		if !conversation.Live() {
			continue
		}
		name, _ := conversation.Remote(nameField)
		_, hasConfiguration := conversation.Remote(configurationDataField)
		if name != "" && hasConfiguration {
			names = append(names, name)
		}
	}
	return names
}

// ConfigurationData returns the subordinates' configuration payloads,
// amalgamated into one view keyed by declared backend name:
//
//	{
//	    "backendA": {"<config file path>": <fragment>, ...},
//	    "backendB": {"<config file path>": <fragment>, ...},
//	}
//
// If name is non-empty the view is filtered to that backend alone. A
// conversation that has not declared a name contributes nothing. Should
// two subordinates declare the same name, the later conversation's
// payload wins.
func (r *Requirer) ConfigurationData(name string) (map[string]map[string]interface{}, error) {
	result := make(map[string]map[string]interface{})
	for _, conversation := range r.conversations() {
		if !conversation.Live() {
			continue
		}
		declared, _ := conversation.Remote(nameField)
		if declared == "" {
			continue
		}
		if name != "" && declared != name {
			continue
		}
		raw, ok := conversation.Remote(configurationDataField)
		if !ok {
			continue
		}
		data, err := decodeConfiguration(raw)
		if err != nil {
			return nil, errors.Annotatef(err, "configuration data from %q", conversation.Scope())
		}
		result[declared] = data
	}
	return result, nil
}

func (r *Requirer) conversations() []Conversation {
	scopes := r.store.Scopes()
	conversations := make([]Conversation, len(scopes))
	for i, scope := range scopes {
		conversations[i] = Conversation{scope: scope, store: r.store}
	}
	return conversations
}
