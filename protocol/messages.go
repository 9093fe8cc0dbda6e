// Package protocol frames the messages exchanged between game clients and the
// server. Every packet is a protobuf-encoded envelope holding exactly one
// payload field.
//
// Canvas packets use the same field numbers in both directions, so the server
// relays the artist's bytes without decoding them.
package protocol

import (
	"imagine/domain"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	FieldCanvasEvent    protowire.Number = 1
	FieldCanvasKeyframe protowire.Number = 2
)

// Client payload fields.
const (
	fieldJoinLobby     protowire.Number = 3
	fieldReady         protowire.Number = 4
	fieldSubjectChosen protowire.Number = 5
	fieldGuess         protowire.Number = 6
)

// Server payload fields.
const (
	fieldJoinAck            protowire.Number = 3
	fieldJoinError          protowire.Number = 4
	fieldSubjectChoices     protowire.Number = 5
	fieldNewSubject         protowire.Number = 6
	fieldGuessResult        protowire.Number = 7
	fieldNewPlayer          protowire.Number = 8
	fieldPlayerDisconnected protowire.Number = 9
	fieldWinnerOfRound      protowire.Number = 10
	fieldNewArtist          protowire.Number = 11
	fieldPlayerGuess        protowire.Number = 12
)

type ClientMessage interface {
	clientField() protowire.Number
}

type ServerMessage interface {
	serverField() protowire.Number
}

// CanvasEvent carries an encoded change set. It travels both ways.
type CanvasEvent struct {
	Data     []byte
	Keyframe bool
}

type JoinLobby struct {
	Ack        uint32
	RoomName   string
	PlayerName string
}

type Ready struct{}

type SubjectChosen struct {
	Subject domain.Subject
}

type Guess struct {
	Ack  uint32
	Text string
}

type JoinAck struct {
	Ack    uint32
	Player domain.ClientPlayer
	Others []domain.ClientPlayer
}

type JoinError struct {
	Ack    uint32
	Reason string
}

type SubjectChoices struct {
	Subjects []domain.Subject
}

type NewSubject struct {
	Placeholder domain.Placeholder
}

type GuessResult struct {
	Ack     uint32
	Correct bool
}

type NewPlayer struct {
	Player domain.ClientPlayer
}

type PlayerDisconnected struct {
	Guid string
}

type WinnerOfRound struct {
	Guid        string
	Score       int
	ArtistGuid  string
	ArtistScore int
}

type NewArtist struct {
	Guid string
}

type PlayerGuess struct {
	Guid  string
	Guess string
}

func (m CanvasEvent) field() protowire.Number {
	if m.Keyframe {
		return FieldCanvasKeyframe
	}
	return FieldCanvasEvent
}

func (m CanvasEvent) clientField() protowire.Number { return m.field() }
func (m CanvasEvent) serverField() protowire.Number { return m.field() }
func (JoinLobby) clientField() protowire.Number { return fieldJoinLobby }
func (Ready) clientField() protowire.Number { return fieldReady }
func (SubjectChosen) clientField() protowire.Number { return fieldSubjectChosen }
func (Guess) clientField() protowire.Number { return fieldGuess }
func (JoinAck) serverField() protowire.Number { return fieldJoinAck }
func (JoinError) serverField() protowire.Number { return fieldJoinError }
func (SubjectChoices) serverField() protowire.Number { return fieldSubjectChoices }
func (NewSubject) serverField() protowire.Number { return fieldNewSubject }
func (GuessResult) serverField() protowire.Number { return fieldGuessResult }
func (NewPlayer) serverField() protowire.Number { return fieldNewPlayer }
func (PlayerDisconnected) serverField() protowire.Number { return fieldPlayerDisconnected }
func (WinnerOfRound) serverField() protowire.Number { return fieldWinnerOfRound }
func (NewArtist) serverField() protowire.Number { return fieldNewArtist }
func (PlayerGuess) serverField() protowire.Number { return fieldPlayerGuess }
