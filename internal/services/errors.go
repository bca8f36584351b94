package services

import (
	"errors"
)

// Core error taxonomy. Handlers map these to HTTP statuses with errors.Is;
// everything else is an internal error (500).
var (
	// ErrInvalidTarget: the vote names both or neither of post/comment, or
	// an unknown target kind.
	ErrInvalidTarget = errors.New("invalid vote target")

	// ErrInvalidValue: vote value outside {+1, -1}.
	ErrInvalidValue = errors.New("vote value must be +1 or -1")

	// ErrInvalidContent: a submitted body is unusable, typically because it
	// is empty after sanitization.
	ErrInvalidContent = errors.New("invalid content")

	// ErrUnknownTarget: the referenced post/comment is absent or not
	// eligible for voting (inactive post, deleted comment).
	ErrUnknownTarget = errors.New("vote target not found")

	ErrUnknownPost    = errors.New("post not found")
	ErrUnknownParent  = errors.New("parent comment not found on this post")
	ErrUnknownComment = errors.New("comment not found")

	ErrNotAuthorized = errors.New("not authorized")

	// ErrConflict: a concurrent-write race exhausted internal retries. Safe
	// for the caller to retry; prior state is unchanged.
	ErrConflict = errors.New("conflicting concurrent update")
)
