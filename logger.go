// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package manilaplugin

import (
	"github.com/juju/loggo/v2"
)

// Logger represents the methods the interface roles use to log.
type Logger interface {
	Tracef(string, ...interface{})
	Debugf(string, ...interface{})
	Warningf(string, ...interface{})
	IsTraceEnabled() bool
}

func ensureLogger(logger Logger, role string) Logger {
	if logger != nil {
		return logger
	}
	return loggo.GetLogger("juju.interface.manilaplugin." + role)
}
