// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package hooks_test

import (
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/openstack/charm-interface-manila-plugin/hooks"
)

type hooksSuite struct{}

var _ = gc.Suite(&hooksSuite{})

func (*hooksSuite) TestKindValid(c *gc.C) {
	for _, kind := range []hooks.Kind{
		hooks.RelationJoined,
		hooks.RelationChanged,
		hooks.RelationDeparted,
		hooks.RelationBroken,
	} {
		c.Check(kind.Valid(), jc.IsTrue)
	}
	c.Check(hooks.Kind("install").Valid(), jc.IsFalse)
	c.Check(hooks.Kind("").Valid(), jc.IsFalse)
}

func (*hooksSuite) TestValidateRequiresRemoteUnit(c *gc.C) {
	for _, kind := range []hooks.Kind{
		hooks.RelationJoined,
		hooks.RelationChanged,
		hooks.RelationDeparted,
	} {
		err := hooks.Info{Kind: kind}.Validate()
		c.Check(err, gc.ErrorMatches, `".*" hook missing remote unit not valid`)

		err = hooks.Info{Kind: kind, RemoteUnit: "manila/0"}.Validate()
		c.Check(err, jc.ErrorIsNil)
	}
}

func (*hooksSuite) TestValidateRejectsBadUnitName(c *gc.C) {
	err := hooks.Info{Kind: hooks.RelationJoined, RemoteUnit: "manila"}.Validate()
	c.Check(err, gc.ErrorMatches, `remote unit "manila" not valid`)
}

func (*hooksSuite) TestBrokenNeedsNoRemoteUnit(c *gc.C) {
	err := hooks.Info{Kind: hooks.RelationBroken}.Validate()
	c.Check(err, jc.ErrorIsNil)
}

func (*hooksSuite) TestValidateRejectsUnknownKind(c *gc.C) {
	err := hooks.Info{Kind: "config-changed"}.Validate()
	c.Check(err, gc.ErrorMatches, `hook kind "config-changed" not valid`)
}
