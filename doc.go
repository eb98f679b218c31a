// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package manilaplugin implements both ends of the manila-plugin relation
// interface: the exchange of service credentials and backend configuration
// between a principal manila charm and its subordinate plugin charms.
//
// The principal (Requirer) sends authentication data to each subordinate;
// each subordinate (Provider) answers with a named configuration payload.
// Payloads travel as JSON envelopes over per-conversation relation-data
// fields:
//
//	_name                  plain string, set by the subordinate
//	_authentication_data   {"data": {...}}, principal to subordinate
//	_configuration_data    {"data": ...},   subordinate to principal
//
// The relation-data mirror itself is an injected Store collaborator, so
// the roles carry no dependency on a live coordination runtime. Both roles
// expose connected/available/changed flags, recomputed on each lifecycle
// hook; changed reflects genuine deltas against what was last observed,
// never mere re-delivery of identical content.
package manilaplugin
