// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package manilaplugin_test

import (
	"encoding/json"

	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	manilaplugin "github.com/openstack/charm-interface-manila-plugin"
	"github.com/openstack/charm-interface-manila-plugin/hooks"
)

type providerSuite struct {
	testing.IsolationSuite

	store    *stubStore
	provider *manilaplugin.Provider
}

var _ = gc.Suite(&providerSuite{})

func (s *providerSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.store = newStubStore()
	s.store.addScope(manilaplugin.GlobalScope)
	provider, err := manilaplugin.NewProvider(manilaplugin.ProviderConfig{
		Relation: "manila-plugin",
		Store:    s.store,
	})
	c.Assert(err, jc.ErrorIsNil)
	s.provider = provider
}

func (s *providerSuite) joined(c *gc.C) {
	err := s.provider.HandleHook(hooks.Info{
		Kind:       hooks.RelationJoined,
		RemoteUnit: "manila/0",
	})
	c.Assert(err, jc.ErrorIsNil)
}

func (s *providerSuite) changed(c *gc.C) {
	err := s.provider.HandleHook(hooks.Info{
		Kind:       hooks.RelationChanged,
		RemoteUnit: "manila/0",
	})
	c.Assert(err, jc.ErrorIsNil)
}

func (s *providerSuite) TestConfigValidation(c *gc.C) {
	_, err := manilaplugin.NewProvider(manilaplugin.ProviderConfig{
		Store: s.store,
	})
	c.Check(err, gc.ErrorMatches, "empty Relation not valid")

	_, err = manilaplugin.NewProvider(manilaplugin.ProviderConfig{
		Relation: "manila-plugin",
	})
	c.Check(err, gc.ErrorMatches, "nil Store not valid")
}

func (s *providerSuite) TestJoinedWithoutAuthData(c *gc.C) {
	s.joined(c)
	c.Check(s.provider.Connected(), jc.IsTrue)
	c.Check(s.provider.Available(), jc.IsFalse)
	c.Check(s.provider.Changed(), jc.IsFalse)
}

func (s *providerSuite) TestAuthDataRaisesAvailableAndChanged(c *gc.C) {
	s.store.setIncoming(manilaplugin.GlobalScope,
		"_authentication_data", authEnvelope(validAuthData()))
	s.joined(c)

	c.Check(s.provider.Connected(), jc.IsTrue)
	c.Check(s.provider.Available(), jc.IsTrue)
	c.Check(s.provider.Changed(), jc.IsTrue)

	data, err := s.provider.AuthenticationData()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(data, jc.DeepEquals, validAuthData())
}

func (s *providerSuite) TestUnchangedAuthDataDoesNotReraiseChanged(c *gc.C) {
	s.store.setIncoming(manilaplugin.GlobalScope,
		"_authentication_data", authEnvelope(validAuthData()))
	s.joined(c)
	err := s.provider.ClearChanged()
	c.Assert(err, jc.ErrorIsNil)

	// Re-deliver structurally identical content with different key
	// order on the wire; it must not register as a change.
	reordered, err := json.Marshal(map[string]interface{}{"data": validAuthData()})
	c.Assert(err, jc.ErrorIsNil)
	s.store.setIncoming(manilaplugin.GlobalScope, "_authentication_data", string(reordered))
	s.changed(c)

	c.Check(s.provider.Available(), jc.IsTrue)
	c.Check(s.provider.Changed(), jc.IsFalse)
}

func (s *providerSuite) TestChangedContentRaisesChangedAgain(c *gc.C) {
	s.store.setIncoming(manilaplugin.GlobalScope,
		"_authentication_data", authEnvelope(validAuthData()))
	s.joined(c)
	err := s.provider.ClearChanged()
	c.Assert(err, jc.ErrorIsNil)

	rotated := validAuthData()
	rotated["password"] = "changed"
	s.store.setIncoming(manilaplugin.GlobalScope,
		"_authentication_data", authEnvelope(rotated))
	s.changed(c)

	c.Check(s.provider.Changed(), jc.IsTrue)
	c.Check(s.provider.Available(), jc.IsTrue)
}

func (s *providerSuite) TestChangedImpliesAvailable(c *gc.C) {
	// Whatever the hook sequence, changed is never observed without
	// available.
	check := func() {
		if s.provider.Changed() {
			c.Check(s.provider.Available(), jc.IsTrue)
		}
	}
	s.joined(c)
	check()
	s.changed(c)
	check()
	s.store.setIncoming(manilaplugin.GlobalScope,
		"_authentication_data", authEnvelope(validAuthData()))
	s.changed(c)
	check()
	s.changed(c)
	check()
}

func (s *providerSuite) TestMissingAuthDataLeavesFlags(c *gc.C) {
	s.store.setIncoming(manilaplugin.GlobalScope,
		"_authentication_data", authEnvelope(validAuthData()))
	s.joined(c)
	c.Assert(s.provider.Available(), jc.IsTrue)

	// The envelope disappearing does not clear anything; only
	// departure does.
	s.store.dropIncoming(manilaplugin.GlobalScope, "_authentication_data")
	s.changed(c)
	c.Check(s.provider.Available(), jc.IsTrue)
	c.Check(s.provider.Changed(), jc.IsTrue)
}

func (s *providerSuite) TestDepartedClearsFlags(c *gc.C) {
	s.store.setIncoming(manilaplugin.GlobalScope,
		"_authentication_data", authEnvelope(validAuthData()))
	s.joined(c)

	err := s.provider.HandleHook(hooks.Info{
		Kind:       hooks.RelationDeparted,
		RemoteUnit: "manila/0",
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.provider.Connected(), jc.IsFalse)
	c.Check(s.provider.Available(), jc.IsFalse)
	c.Check(s.provider.Changed(), jc.IsFalse)
}

func (s *providerSuite) TestClearChangedOnInertConversation(c *gc.C) {
	s.store.setIncoming(manilaplugin.GlobalScope,
		"_authentication_data", authEnvelope(validAuthData()))
	s.joined(c)
	s.store.depart(manilaplugin.GlobalScope)

	err := s.provider.ClearChanged()
	c.Check(err, jc.ErrorIs, manilaplugin.ErrConversationInert)
	c.Check(s.provider.Changed(), jc.IsFalse)
}

func (s *providerSuite) TestSetName(c *gc.C) {
	s.provider.SetName("generic")

	name, ok := s.provider.Name()
	c.Assert(ok, jc.IsTrue)
	c.Check(name, gc.Equals, "generic")
	// The name goes to the remote side too, so the principal can key
	// its amalgamation on it.
	c.Check(s.store.remote[manilaplugin.GlobalScope]["_name"], gc.Equals, "generic")
}

func (s *providerSuite) TestNameUnset(c *gc.C) {
	_, ok := s.provider.Name()
	c.Check(ok, jc.IsFalse)
}

func (s *providerSuite) TestConfigurationDataRoundTrip(c *gc.C) {
	payload := map[string]interface{}{
		"complete": true,
		"/etc/manila/manila.conf": map[string]interface{}{
			"generic": map[string]interface{}{
				"driver_handles_share_servers": "true",
				"share_backend_name":           "GENERIC",
			},
		},
		"/etc/manila/extra.conf": "# raw snippet\n",
	}
	err := s.provider.SetConfigurationData(payload)
	c.Assert(err, jc.ErrorIsNil)

	data, err := s.provider.ConfigurationData()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(data, jc.DeepEquals, payload)

	// Both sides of the conversation carry the same envelope.
	c.Check(s.store.remote[manilaplugin.GlobalScope]["_configuration_data"],
		gc.Equals, s.store.local[manilaplugin.GlobalScope]["_configuration_data"])
}

func (s *providerSuite) TestConfigurationDataUnset(c *gc.C) {
	data, err := s.provider.ConfigurationData()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(data, gc.IsNil)
}

func (s *providerSuite) TestAuthenticationDataAbsent(c *gc.C) {
	data, err := s.provider.AuthenticationData()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(data, gc.IsNil)
}

func (s *providerSuite) TestHandleHookRejectsUnknownKind(c *gc.C) {
	err := s.provider.HandleHook(hooks.Info{Kind: "install"})
	c.Check(err, gc.ErrorMatches, `hook kind "install" not valid`)
}

func (s *providerSuite) TestHandleHookRejectsBadUnit(c *gc.C) {
	err := s.provider.HandleHook(hooks.Info{
		Kind:       hooks.RelationJoined,
		RemoteUnit: "not a unit",
	})
	c.Check(err, gc.ErrorMatches, `remote unit "not a unit" not valid`)
}
