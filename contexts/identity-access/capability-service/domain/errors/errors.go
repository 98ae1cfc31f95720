package errors

import "errors"

var (
	ErrInvalidActor      = errors.New("invalid actor id")
	ErrInvalidCapability = errors.New("invalid capability id")
	ErrGrantNotFound     = errors.New("capability grant not found")
	ErrForbidden         = errors.New("caller may not manage capability grants")
)
