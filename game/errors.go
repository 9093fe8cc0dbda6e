package game

import "errors"

var (
	ErrLobbyClosed      = errors.New("lobby-closed")
	ErrHandshakeTimeout = errors.New("handshake-timeout")
	ErrExpectedJoin     = errors.New("expected-join-lobby")
	ErrInvalidRoomName  = errors.New("invalid-room-name")
	ErrNoNextArtist     = errors.New("no-next-artist")
)
