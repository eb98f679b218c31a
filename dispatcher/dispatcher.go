// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package dispatcher connects an interface role to a hub topic carrying
// its relation lifecycle hooks. Hooks are handled one at a time in
// publication order, preserving the single-threaded dispatch model the
// roles are written against.
package dispatcher

import (
	"github.com/juju/errors"
	"github.com/juju/pubsub/v2"
	"github.com/juju/worker/v4/catacomb"

	"github.com/openstack/charm-interface-manila-plugin/hooks"
)

// Role is either end of the relation interface.
type Role interface {
	HandleHook(hooks.Info) error
}

// Logger represents the methods used by the dispatcher to log.
type Logger interface {
	Debugf(string, ...interface{})
}

// Config defines the operation of a Dispatcher.
type Config struct {
	Hub    *pubsub.StructuredHub
	Topic  string
	Role   Role
	Logger Logger
}

// Validate returns an error if the config cannot drive a Dispatcher.
func (config Config) Validate() error {
	if config.Hub == nil {
		return errors.NotValidf("nil Hub")
	}
	if config.Topic == "" {
		return errors.NotValidf("empty Topic")
	}
	if config.Role == nil {
		return errors.NotValidf("nil Role")
	}
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	return nil
}

// Dispatcher is a worker that subscribes a role to its hook topic for as
// long as it runs. A hook handling failure kills the worker; the error is
// reported from Wait.
type Dispatcher struct {
	catacomb catacomb.Catacomb
	config   Config
}

// New returns a running Dispatcher, or an error.
func New(config Config) (*Dispatcher, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	d := &Dispatcher{config: config}
	if err := catacomb.Invoke(catacomb.Plan{
		Site: &d.catacomb,
		Work: d.loop,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return d, nil
}

// Kill is part of the worker.Worker interface.
func (d *Dispatcher) Kill() {
	d.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (d *Dispatcher) Wait() error {
	return d.catacomb.Wait()
}

func (d *Dispatcher) loop() error {
	unsubscribe, err := d.config.Hub.Subscribe(d.config.Topic, d.onHook)
	if err != nil {
		return errors.Trace(err)
	}
	defer unsubscribe()
	<-d.catacomb.Dying()
	return d.catacomb.ErrDying()
}

// onHook runs on the hub's subscriber goroutine, which delivers one event
// at a time in publication order. Handling the hook here, rather than
// forwarding it to the worker loop, keeps that ordering intact and means
// a publisher's completion channel only closes once the role has fully
// processed the hook.
func (d *Dispatcher) onHook(topic string, info hooks.Info, err error) {
	if err != nil {
		d.catacomb.Kill(errors.Annotatef(err, "decoding hook event on %q", topic))
		return
	}
	d.config.Logger.Debugf("dispatching %q for %q on %q", info.Kind, info.RemoteUnit, topic)
	if err := d.config.Role.HandleHook(info); err != nil {
		d.catacomb.Kill(errors.Annotatef(err, "handling %q hook", info.Kind))
	}
}
