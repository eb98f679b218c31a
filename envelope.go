// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package manilaplugin

import (
	"encoding/json"
	"reflect"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
)

// authenticationKeys is the key set the principal is expected to send.
// Validation is soft: a mismatch is logged, never rejected, since the
// subordinate may well cope with partial credentials.
var authenticationKeys = set.NewStrings(
	"username",
	"password",
	"project_domain_id",
	"project_name",
	"user_domain_id",
	"auth_uri",
	"auth_url",
	"auth_type",
)

// authenticationEnvelope wraps the credentials sent by the principal for
// transport over a scalar relation-data field.
type authenticationEnvelope struct {
	Data map[string]string `json:"data"`
}

// configurationEnvelope wraps the opaque configuration payload sent by a
// subordinate. The interface never interprets its contents; the payload
// is a mapping from config file path to fragment, where a fragment is
// either a raw string or nested section key/values, and may carry a
// "complete" readiness flag.
type configurationEnvelope struct {
	Data map[string]interface{} `json:"data"`
}

func encodeAuthentication(data map[string]string) (string, error) {
	raw, err := json.Marshal(authenticationEnvelope{Data: data})
	if err != nil {
		return "", errors.Trace(err)
	}
	return string(raw), nil
}

func decodeAuthentication(raw string) (map[string]string, error) {
	var envelope authenticationEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, errors.Annotate(err, "decoding authentication envelope")
	}
	return envelope.Data, nil
}

func encodeConfiguration(data map[string]interface{}) (string, error) {
	raw, err := json.Marshal(configurationEnvelope{Data: data})
	if err != nil {
		return "", errors.Trace(err)
	}
	return string(raw), nil
}

func decodeConfiguration(raw string) (map[string]interface{}, error) {
	var envelope configurationEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, errors.Annotate(err, "decoding configuration envelope")
	}
	return envelope.Data, nil
}

// sameEnvelopeContent compares two envelope strings by decoded structure,
// not by text, so key order and whitespace differences do not register as
// content changes.
func sameEnvelopeContent(a, b string) bool {
	var left, right interface{}
	if err := json.Unmarshal([]byte(a), &left); err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(b), &right); err != nil {
		return false
	}
	return reflect.DeepEqual(left, right)
}
