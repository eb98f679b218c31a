// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package manilaplugin_test

import (
	"encoding/json"
	"fmt"

	manilaplugin "github.com/openstack/charm-interface-manila-plugin"
)

// stubStore is an in-memory Store with direct access to both sides'
// settings, plus a record of remote writes for idempotence assertions.
type stubStore struct {
	scopes []manilaplugin.Scope
	live   map[manilaplugin.Scope]bool
	local  map[manilaplugin.Scope]map[string]string
	remote map[manilaplugin.Scope]map[string]string

	remoteWrites []string
}

func newStubStore() *stubStore {
	return &stubStore{
		live:   make(map[manilaplugin.Scope]bool),
		local:  make(map[manilaplugin.Scope]map[string]string),
		remote: make(map[manilaplugin.Scope]map[string]string),
	}
}

// addScope registers a live conversation scope.
func (s *stubStore) addScope(scope manilaplugin.Scope) {
	s.scopes = append(s.scopes, scope)
	s.live[scope] = true
	s.local[scope] = make(map[string]string)
	s.remote[scope] = make(map[string]string)
}

// depart marks the scope inert without forgetting it.
func (s *stubStore) depart(scope manilaplugin.Scope) {
	s.live[scope] = false
}

// setIncoming simulates the remote side writing a field.
func (s *stubStore) setIncoming(scope manilaplugin.Scope, field, value string) {
	s.remote[scope][field] = value
}

// dropIncoming simulates the remote side withdrawing a field.
func (s *stubStore) dropIncoming(scope manilaplugin.Scope, field string) {
	delete(s.remote[scope], field)
}

func (s *stubStore) Scopes() []manilaplugin.Scope {
	return s.scopes
}

func (s *stubStore) Live(scope manilaplugin.Scope) bool {
	return s.live[scope]
}

func (s *stubStore) Local(scope manilaplugin.Scope, field string) (string, bool) {
	value, ok := s.local[scope][field]
	return value, ok
}

func (s *stubStore) SetLocal(scope manilaplugin.Scope, field, value string) {
	s.local[scope][field] = value
}

func (s *stubStore) RemoveLocal(scope manilaplugin.Scope, field string) {
	delete(s.local[scope], field)
}

func (s *stubStore) Remote(scope manilaplugin.Scope, field string) (string, bool) {
	value, ok := s.remote[scope][field]
	return value, ok
}

func (s *stubStore) SetRemote(scope manilaplugin.Scope, field, value string) {
	s.remote[scope][field] = value
	s.remoteWrites = append(s.remoteWrites, fmt.Sprintf("%s:%s", scope, field))
}

// authEnvelope renders the wire form of authentication data.
func authEnvelope(data map[string]string) string {
	raw, err := json.Marshal(map[string]interface{}{"data": data})
	if err != nil {
		panic(err)
	}
	return string(raw)
}

// configEnvelope renders the wire form of a configuration payload.
func configEnvelope(data map[string]interface{}) string {
	raw, err := json.Marshal(map[string]interface{}{"data": data})
	if err != nil {
		panic(err)
	}
	return string(raw)
}

// stubLogger records warnings so soft validation can be asserted on.
type stubLogger struct {
	warnings []string
}

func (l *stubLogger) Tracef(string, ...interface{}) {}

func (l *stubLogger) Debugf(string, ...interface{}) {}

func (l *stubLogger) Warningf(format string, args ...interface{}) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *stubLogger) IsTraceEnabled() bool {
	return false
}

// validAuthData returns credentials with exactly the expected key set.
func validAuthData() map[string]string {
	return map[string]string{
		"username":          "manila",
		"password":          "sekrit",
		"project_domain_id": "default",
		"project_name":      "services",
		"user_domain_id":    "default",
		"auth_uri":          "http://keystone:5000/v3",
		"auth_url":          "http://keystone:35357/v3",
		"auth_type":         "password",
	}
}
