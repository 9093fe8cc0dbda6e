package client

import "errors"

var (
	ErrClosed       = errors.New("client-closed")
	ErrJoinRefused  = errors.New("join-refused")
	ErrUnexpected   = errors.New("unexpected-reply")
	ErrUnknownImage = errors.New("unknown-figure")
)
