// Package access decides whether an identity may act on a property.
//
// Every property mutation and every owner-only read goes through Check, so
// the ownership rule lives in one place.
package access

import "errors"

// ErrDenied is returned by Check when the action is not permitted.
var ErrDenied = errors.New("access denied")

// Action is something an identity wants to do with a property.
type Action string

const (
	ViewDraft     Action = "view-draft"
	AttachImage   Action = "attach-image"
	Edit          Action = "edit"
	Delete        Action = "delete"
	TogglePublish Action = "toggle-publish"
	ReadMessages  Action = "read-messages"
	ViewPublic    Action = "view-public"
)

// Actor is the identity making a request. A nil Actor is anonymous.
type Actor interface {
	ActorID() int64
}

// Target is the property being acted on.
type Target interface {
	OwnerID() int64
	IsPublished() bool
}

// Decision is the outcome of Authorize.
type Decision bool

const (
	Deny   Decision = false
	Permit Decision = true
)

// Authorize returns Permit iff the actor owns the target. ViewPublic is the
// exception: it depends only on the published flag, so anonymous actors may
// read published properties and nobody reads drafts through the public page.
func Authorize(actor Actor, target Target, action Action) Decision {
	if target == nil {
		return Deny
	}
	if action == ViewPublic {
		return Decision(target.IsPublished())
	}
	if Anonymous(actor) {
		return Deny
	}
	return Decision(actor.ActorID() == target.OwnerID())
}

// Check is Authorize expressed as an error.
func Check(actor Actor, target Target, action Action) error {
	if Authorize(actor, target, action) == Deny {
		return ErrDenied
	}
	return nil
}

// Anonymous reports whether a is absent, including a typed nil pointer
// stored in the interface.
func Anonymous(a Actor) bool {
	if a == nil {
		return true
	}
	if n, ok := a.(interface{ IsNil() bool }); ok {
		return n.IsNil()
	}
	return false
}
