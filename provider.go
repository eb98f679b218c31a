// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package manilaplugin

import (
	"github.com/juju/errors"

	"github.com/openstack/charm-interface-manila-plugin/hooks"
)

// ProviderConfig holds the collaborators a Provider needs.
type ProviderConfig struct {
	// Relation is the local relation name, used to namespace the flags
	// exposed to the charm, e.g. "manila-plugin".
	Relation string

	// Store is this end's relation-data mirror.
	Store Store

	// Logger is optional; a loggo logger is used when nil.
	Logger Logger
}

// Validate returns an error if the config cannot drive a Provider.
func (config ProviderConfig) Validate() error {
	if config.Relation == "" {
		return errors.NotValidf("empty Relation")
	}
	if config.Store == nil {
		return errors.NotValidf("nil Store")
	}
	return nil
}

// Provider is the subordinate end of the manila-plugin relation: it
// receives service credentials from the principal and answers with a
// named configuration payload. A subordinate holds exactly one
// conversation, at GlobalScope.
type Provider struct {
	relation string
	store    Store
	flags    *Flags
	logger   Logger
}

// NewProvider returns a Provider backed by config, or an error.
func NewProvider(config ProviderConfig) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &Provider{
		relation: config.Relation,
		store:    config.Store,
		flags:    NewFlags(config.Relation),
		logger:   ensureLogger(config.Logger, "provider"),
	}, nil
}

// HandleHook dispatches one relation lifecycle event.
func (p *Provider) HandleHook(info hooks.Info) error {
	if err := info.Validate(); err != nil {
		return errors.Trace(err)
	}
	switch info.Kind {
	case hooks.RelationJoined:
		p.flags.Raise(Connected)
		p.UpdateStatus()
	case hooks.RelationChanged:
		p.UpdateStatus()
	case hooks.RelationDeparted, hooks.RelationBroken:
		p.flags.Lower(Connected)
		p.flags.Lower(Available)
		p.flags.Lower(Changed)
	}
	return nil
}

// Connected reports whether the principal has joined.
func (p *Provider) Connected() bool {
	return p.flags.Raised(Connected)
}

// Available reports whether authentication data has arrived.
func (p *Provider) Available() bool {
	return p.flags.Raised(Available)
}

// Changed reports whether the authentication data differs from what was
// last observed. It is never raised without Available.
func (p *Provider) Changed() bool {
	return p.flags.Raised(Changed)
}

// UpdateStatus recomputes the available and changed flags from the
// current authentication envelope. If no envelope has arrived the flags
// are left exactly as they were; they are only cleared on departure.
// Changed is raised only when the decoded content differs from the
// locally cached copy of the last envelope seen, so re-delivery of
// identical data does not re-trigger the charm.
func (p *Provider) UpdateStatus() {
	conversation := p.conversation()
	raw, ok := conversation.Remote(authenticationDataField)
	if !ok {
		return
	}
	p.flags.Raise(Available)
	cached, hasCached := conversation.Local(authenticationDataField)
	if hasCached && sameEnvelopeContent(cached, raw) {
		return
	}
	p.flags.Raise(Changed)
	conversation.SetLocal(authenticationDataField, raw)
	if p.logger.IsTraceEnabled() {
		p.logger.Tracef("authentication data changed; flags now %v", p.flags.Snapshot())
	}
}

// ClearChanged lowers the changed flag once the charm has consumed the
// change. If the conversation's scope has already been withdrawn by the
// substrate, the flag is lowered anyway and ErrConversationInert is
// returned; callers that only care about the flag may ignore it.
func (p *Provider) ClearChanged() error {
	p.flags.Lower(Changed)
	if !p.conversation().Live() {
		return ErrConversationInert
	}
	return nil
}

// Name returns the plugin name previously set, if any.
func (p *Provider) Name() (string, bool) {
	return p.conversation().Local(nameField)
}

// SetName publishes the plugin name, which the principal uses to key the
// amalgamated configuration and to target credentials at this
// subordinate. The name is kept in both local and remote storage so this
// end can introspect what it last sent.
func (p *Provider) SetName(name string) {
	conversation := p.conversation()
	conversation.SetLocal(nameField, name)
	conversation.SetRemote(nameField, name)
}

// AuthenticationData returns the credentials sent by the principal, or
// nil if none have arrived yet.
func (p *Provider) AuthenticationData() (map[string]string, error) {
	raw, ok := p.conversation().Remote(authenticationDataField)
	if !ok {
		return nil, nil
	}
	data, err := decodeAuthentication(raw)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return data, nil
}

// ConfigurationData returns the configuration payload this end last sent,
// or nil if none has been set.
func (p *Provider) ConfigurationData() (map[string]interface{}, error) {
	raw, ok := p.conversation().Local(configurationDataField)
	if !ok {
		return nil, nil
	}
	data, err := decodeConfiguration(raw)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return data, nil
}

// SetConfigurationData wraps the payload in the transport envelope and
// writes it to both local and remote storage. The payload is opaque to
// the interface: a mapping from config file path to fragment content,
// optionally carrying a "complete" readiness flag.
func (p *Provider) SetConfigurationData(data map[string]interface{}) error {
	raw, err := encodeConfiguration(data)
	if err != nil {
		return errors.Trace(err)
	}
	conversation := p.conversation()
	conversation.SetLocal(configurationDataField, raw)
	conversation.SetRemote(configurationDataField, raw)
	return nil
}

func (p *Provider) conversation() Conversation {
	return Conversation{scope: GlobalScope, store: p.store}
}
