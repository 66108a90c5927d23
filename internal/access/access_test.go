package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct{ id int64 }

func (u *user) ActorID() int64 { return u.id }
func (u *user) IsNil() bool    { return u == nil }

type listing struct {
	owner     int64
	published bool
}

func (l listing) OwnerID() int64    { return l.owner }
func (l listing) IsPublished() bool { return l.published }

func TestAuthorizeOwnerOnlyActions(t *testing.T) {
	owner := &user{id: 1}
	stranger := &user{id: 2}

	actions := []Action{ViewDraft, AttachImage, Edit, Delete, TogglePublish, ReadMessages}
	for _, published := range []bool{false, true} {
		target := listing{owner: 1, published: published}
		for _, action := range actions {
			assert.Equal(t, Permit, Authorize(owner, target, action), "owner %s published=%v", action, published)
			assert.Equal(t, Deny, Authorize(stranger, target, action), "stranger %s published=%v", action, published)
			assert.Equal(t, Deny, Authorize(nil, target, action), "anonymous %s published=%v", action, published)
		}
	}
}

func TestAuthorizePublicView(t *testing.T) {
	published := listing{owner: 1, published: true}
	draft := listing{owner: 1, published: false}

	assert.Equal(t, Permit, Authorize(nil, published, ViewPublic))
	assert.Equal(t, Permit, Authorize(&user{id: 9}, published, ViewPublic))
	assert.Equal(t, Deny, Authorize(nil, draft, ViewPublic))
	assert.Equal(t, Deny, Authorize(&user{id: 9}, draft, ViewPublic))
	assert.Equal(t, Deny, Authorize(&user{id: 1}, draft, ViewPublic), "owner reads drafts through the owner pages")
}

func TestAuthorizeTypedNilActor(t *testing.T) {
	var u *user
	assert.Equal(t, Deny, Authorize(u, listing{owner: 0}, Edit))
}

func TestAuthorizeNilTarget(t *testing.T) {
	assert.Equal(t, Deny, Authorize(&user{id: 1}, nil, Edit))
}

func TestCheck(t *testing.T) {
	target := listing{owner: 7}

	require.NoError(t, Check(&user{id: 7}, target, Delete))
	assert.ErrorIs(t, Check(&user{id: 8}, target, Delete), ErrDenied)
}
