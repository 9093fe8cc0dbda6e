package domain

import "errors"

var (
	ErrRoomFull             = errors.New("room-full")
	ErrRoomClosed           = errors.New("room-closed")
	ErrNoSubjects           = errors.New("no-subjects")
	UnexpectedDatabaseError = errors.New("unexpected-database-error")
)
