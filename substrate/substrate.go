// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package substrate provides an in-memory stand-in for the coordination
// substrate: it mirrors relation data between a principal unit and its
// subordinate plugin units, and delivers lifecycle hooks over a
// structured hub. It exists so the interface roles can be exercised in
// tests and local harnesses without a live runtime; it makes no attempt
// at durability or transport security.
package substrate

import (
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/names/v5"
	"github.com/juju/pubsub/v2"

	manilaplugin "github.com/openstack/charm-interface-manila-plugin"
	"github.com/openstack/charm-interface-manila-plugin/hooks"
)

// Relation simulates one relation between a principal unit and any number
// of subordinate units. Each side sees its own Store view; writes to a
// view's remote fields become visible to the opposite side and trigger a
// relation-changed hook there, mirroring the runtime's behaviour.
type Relation struct {
	name      string
	principal string
	hub       *pubsub.StructuredHub

	mu      sync.Mutex
	order   []manilaplugin.Scope
	units   map[manilaplugin.Scope]*unitRecord
	pending []<-chan struct{}
}

type unitRecord struct {
	live bool

	// unitSettings is written by the subordinate, read by the principal.
	// principalSettings is the reverse. The local bags are private
	// bookkeeping for each role and are never mirrored.
	unitSettings      map[string]string
	principalSettings map[string]string
	providerLocal     map[string]string
	requirerLocal     map[string]string
}

// NewRelation returns a relation named name whose principal end is the
// given unit.
func NewRelation(name, principalUnit string) (*Relation, error) {
	if name == "" {
		return nil, errors.NotValidf("empty relation name")
	}
	if !names.IsValidUnit(principalUnit) {
		return nil, errors.NotValidf("principal unit %q", principalUnit)
	}
	return &Relation{
		name:      name,
		principal: principalUnit,
		hub:       pubsub.NewStructuredHub(nil),
		units:     make(map[manilaplugin.Scope]*unitRecord),
	}, nil
}

// Hub returns the hub lifecycle hooks are published on.
func (r *Relation) Hub() *pubsub.StructuredHub {
	return r.hub
}

// RequirerTopic is the topic the principal's hooks are published on.
func (r *Relation) RequirerTopic() string {
	return r.name + ".principal"
}

// ProviderTopic is the topic the named subordinate unit's hooks are
// published on.
func (r *Relation) ProviderTopic(unit string) string {
	return r.name + ".subordinate." + unit
}

// Join adds a subordinate unit to the relation and fires relation-joined
// on both sides. A departed unit may rejoin; it comes back with fresh
// settings but keeps its original position in conversation order.
func (r *Relation) Join(unit string) error {
	if !names.IsValidUnit(unit) {
		return errors.NotValidf("unit %q", unit)
	}
	scope := manilaplugin.Scope(unit)
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.units[scope]
	if ok && record.live {
		return errors.AlreadyExistsf("unit %q", unit)
	}
	if !ok {
		r.order = append(r.order, scope)
	}
	r.units[scope] = &unitRecord{
		live:              true,
		unitSettings:      make(map[string]string),
		principalSettings: make(map[string]string),
		providerLocal:     make(map[string]string),
		requirerLocal:     make(map[string]string),
	}
	r.publishLocked(r.RequirerTopic(), hooks.Info{Kind: hooks.RelationJoined, RemoteUnit: unit})
	r.publishLocked(r.ProviderTopic(unit), hooks.Info{Kind: hooks.RelationJoined, RemoteUnit: r.principal})
	return nil
}

// Depart marks a subordinate unit inert and fires relation-departed on
// both sides. The unit's scope remains reported by the principal's view
// forever after, as the runtime's does.
func (r *Relation) Depart(unit string) error {
	scope := manilaplugin.Scope(unit)
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.units[scope]
	if !ok || !record.live {
		return errors.NotFoundf("unit %q", unit)
	}
	record.live = false
	r.publishLocked(r.RequirerTopic(), hooks.Info{Kind: hooks.RelationDeparted, RemoteUnit: unit})
	r.publishLocked(r.ProviderTopic(unit), hooks.Info{Kind: hooks.RelationDeparted, RemoteUnit: r.principal})
	return nil
}

// Change fires relation-changed for the unit on both sides without any
// settings write. Tests use it to force a recomputation.
func (r *Relation) Change(unit string) error {
	scope := manilaplugin.Scope(unit)
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.units[scope]
	if !ok || !record.live {
		return errors.NotFoundf("unit %q", unit)
	}
	r.publishLocked(r.RequirerTopic(), hooks.Info{Kind: hooks.RelationChanged, RemoteUnit: unit})
	r.publishLocked(r.ProviderTopic(unit), hooks.Info{Kind: hooks.RelationChanged, RemoteUnit: r.principal})
	return nil
}

// ProviderStore returns the subordinate unit's view of the relation data.
// The view exposes the single GlobalScope conversation with the
// principal.
func (r *Relation) ProviderStore(unit string) manilaplugin.Store {
	return providerView{relation: r, scope: manilaplugin.Scope(unit), unit: unit}
}

// RequirerStore returns the principal's view of the relation data, one
// scope per subordinate unit ever seen.
func (r *Relation) RequirerStore() manilaplugin.Store {
	return requirerView{relation: r}
}

// Settle blocks until every hook published so far, including any
// published in reaction to earlier ones, has been handled by all
// subscribers. It is how tests establish that the dust has settled
// before asserting on role state.
func (r *Relation) Settle(clk clock.Clock, timeout time.Duration) error {
	for {
		r.mu.Lock()
		pending := r.pending
		r.pending = nil
		r.mu.Unlock()
		if len(pending) == 0 {
			return nil
		}
		for _, done := range pending {
			select {
			case <-done:
			case <-clk.After(timeout):
				return errors.Timeoutf("waiting for hook delivery")
			}
		}
	}
}

// publishLocked queues a hook for delivery. Callers hold r.mu; the hub
// hands events to subscribers asynchronously, so nothing here blocks.
func (r *Relation) publishLocked(topic string, info hooks.Info) {
	wait, err := r.hub.Publish(topic, info)
	if err != nil {
		// Info always marshals; an error here is a programming bug.
		panic(err)
	}
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	r.pending = append(r.pending, done)
}

type providerView struct {
	relation *Relation
	scope    manilaplugin.Scope
	unit     string
}

func (v providerView) record() (*unitRecord, bool) {
	record, ok := v.relation.units[v.scope]
	return record, ok
}

// Scopes implements manilaplugin.Store. A subordinate only ever holds
// the one conversation with its principal.
func (v providerView) Scopes() []manilaplugin.Scope {
	return []manilaplugin.Scope{manilaplugin.GlobalScope}
}

func (v providerView) Live(scope manilaplugin.Scope) bool {
	if scope != manilaplugin.GlobalScope {
		return false
	}
	v.relation.mu.Lock()
	defer v.relation.mu.Unlock()
	record, ok := v.record()
	return ok && record.live
}

func (v providerView) Local(scope manilaplugin.Scope, field string) (string, bool) {
	if scope != manilaplugin.GlobalScope {
		return "", false
	}
	v.relation.mu.Lock()
	defer v.relation.mu.Unlock()
	record, ok := v.record()
	if !ok {
		return "", false
	}
	value, ok := record.providerLocal[field]
	return value, ok
}

func (v providerView) SetLocal(scope manilaplugin.Scope, field, value string) {
	if scope != manilaplugin.GlobalScope {
		return
	}
	v.relation.mu.Lock()
	defer v.relation.mu.Unlock()
	if record, ok := v.record(); ok {
		record.providerLocal[field] = value
	}
}

func (v providerView) RemoveLocal(scope manilaplugin.Scope, field string) {
	if scope != manilaplugin.GlobalScope {
		return
	}
	v.relation.mu.Lock()
	defer v.relation.mu.Unlock()
	if record, ok := v.record(); ok {
		delete(record.providerLocal, field)
	}
}

func (v providerView) Remote(scope manilaplugin.Scope, field string) (string, bool) {
	if scope != manilaplugin.GlobalScope {
		return "", false
	}
	v.relation.mu.Lock()
	defer v.relation.mu.Unlock()
	record, ok := v.record()
	if !ok {
		return "", false
	}
	value, ok := record.principalSettings[field]
	return value, ok
}

// SetRemote publishes a setting to the principal and fires
// relation-changed there, as the runtime would on a settings write.
func (v providerView) SetRemote(scope manilaplugin.Scope, field, value string) {
	if scope != manilaplugin.GlobalScope {
		return
	}
	v.relation.mu.Lock()
	defer v.relation.mu.Unlock()
	record, ok := v.record()
	if !ok || !record.live {
		return
	}
	record.unitSettings[field] = value
	v.relation.publishLocked(
		v.relation.RequirerTopic(),
		hooks.Info{Kind: hooks.RelationChanged, RemoteUnit: v.unit})
}

type requirerView struct {
	relation *Relation
}

func (v requirerView) Scopes() []manilaplugin.Scope {
	v.relation.mu.Lock()
	defer v.relation.mu.Unlock()
	scopes := make([]manilaplugin.Scope, len(v.relation.order))
	copy(scopes, v.relation.order)
	return scopes
}

func (v requirerView) Live(scope manilaplugin.Scope) bool {
	v.relation.mu.Lock()
	defer v.relation.mu.Unlock()
	record, ok := v.relation.units[scope]
	return ok && record.live
}

func (v requirerView) Local(scope manilaplugin.Scope, field string) (string, bool) {
	v.relation.mu.Lock()
	defer v.relation.mu.Unlock()
	record, ok := v.relation.units[scope]
	if !ok {
		return "", false
	}
	value, ok := record.requirerLocal[field]
	return value, ok
}

func (v requirerView) SetLocal(scope manilaplugin.Scope, field, value string) {
	v.relation.mu.Lock()
	defer v.relation.mu.Unlock()
	if record, ok := v.relation.units[scope]; ok {
		record.requirerLocal[field] = value
	}
}

func (v requirerView) RemoveLocal(scope manilaplugin.Scope, field string) {
	v.relation.mu.Lock()
	defer v.relation.mu.Unlock()
	if record, ok := v.relation.units[scope]; ok {
		delete(record.requirerLocal, field)
	}
}

func (v requirerView) Remote(scope manilaplugin.Scope, field string) (string, bool) {
	v.relation.mu.Lock()
	defer v.relation.mu.Unlock()
	record, ok := v.relation.units[scope]
	if !ok {
		return "", false
	}
	value, ok := record.unitSettings[field]
	return value, ok
}

// SetRemote publishes a setting to the subordinate owning the scope and
// fires relation-changed there.
func (v requirerView) SetRemote(scope manilaplugin.Scope, field, value string) {
	v.relation.mu.Lock()
	defer v.relation.mu.Unlock()
	record, ok := v.relation.units[scope]
	if !ok || !record.live {
		return
	}
	record.principalSettings[field] = value
	v.relation.publishLocked(
		v.relation.ProviderTopic(string(scope)),
		hooks.Info{Kind: hooks.RelationChanged, RemoteUnit: v.relation.principal})
}
