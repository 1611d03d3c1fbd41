package service

import "errors"

var (
	// ErrInvalidArgument rejects a mutation missing a required
	// identifier or content.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrFollowSelf 不允许自己关注自己
	ErrFollowSelf = errors.New("cannot follow self")
)
