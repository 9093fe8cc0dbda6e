package protocol

import (
	"errors"
	"fmt"

	"imagine/domain"
	"imagine/internal/wire"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrMalformedPacket = errors.New("malformed-packet")
	ErrEmptyPacket     = errors.New("empty-packet")
)

// IsCanvasPacket reports whether b carries a canvas payload, looking only at
// the first tag. keyframe is set for full scene packets.
func IsCanvasPacket(b []byte) (ok, keyframe bool) {
	num, found := wire.FirstField(b)
	if !found {
		return false, false
	}
	return num == FieldCanvasEvent || num == FieldCanvasKeyframe, num == FieldCanvasKeyframe
}

func MarshalClient(m ClientMessage) []byte {
	return wire.AppendBytes(nil, m.clientField(), marshalBody(m))
}

func MarshalServer(m ServerMessage) []byte {
	return wire.AppendBytes(nil, m.serverField(), marshalBody(m))
}

func marshalBody(m any) []byte {
	var b []byte
	switch m := m.(type) {
	case CanvasEvent:
		return m.Data
	case JoinLobby:
		b = wire.AppendUint(b, 1, uint64(m.Ack))
		b = wire.AppendString(b, 2, m.RoomName)
		b = wire.AppendString(b, 3, m.PlayerName)
	case Ready:
	case SubjectChosen:
		b = appendSubject(b, 1, m.Subject)
	case Guess:
		b = wire.AppendUint(b, 1, uint64(m.Ack))
		b = wire.AppendString(b, 2, m.Text)
	case JoinAck:
		b = wire.AppendUint(b, 1, uint64(m.Ack))
		b = appendPlayer(b, 2, m.Player)
		for _, p := range m.Others {
			b = appendPlayer(b, 3, p)
		}
	case JoinError:
		b = wire.AppendUint(b, 1, uint64(m.Ack))
		b = wire.AppendString(b, 2, m.Reason)
	case SubjectChoices:
		for _, s := range m.Subjects {
			b = appendSubject(b, 1, s)
		}
	case NewSubject:
		letters := make([]uint64, 0, len(m.Placeholder.Letters))
		for _, n := range m.Placeholder.Letters {
			letters = append(letters, uint64(n))
		}
		b = wire.AppendPacked(b, 1, letters)
		b = wire.AppendString(b, 2, m.Placeholder.Topic)
	case GuessResult:
		b = wire.AppendUint(b, 1, uint64(m.Ack))
		b = wire.AppendBool(b, 2, m.Correct)
	case NewPlayer:
		b = appendPlayer(b, 1, m.Player)
	case PlayerDisconnected:
		b = wire.AppendString(b, 1, m.Guid)
	case WinnerOfRound:
		b = wire.AppendString(b, 1, m.Guid)
		b = wire.AppendSint(b, 2, int64(m.Score))
		b = wire.AppendString(b, 3, m.ArtistGuid)
		b = wire.AppendSint(b, 4, int64(m.ArtistScore))
	case NewArtist:
		b = wire.AppendString(b, 1, m.Guid)
	case PlayerGuess:
		b = wire.AppendString(b, 1, m.Guid)
		b = wire.AppendString(b, 2, m.Guess)
	default:
		panic(fmt.Sprintf("protocol: unknown message %T", m))
	}
	return b
}

func appendSubject(b []byte, num protowire.Number, s domain.Subject) []byte {
	var sb []byte
	sb = wire.AppendString(sb, 1, s.Text)
	sb = wire.AppendString(sb, 2, s.Topic)
	return wire.AppendBytes(b, num, sb)
}

func appendPlayer(b []byte, num protowire.Number, p domain.ClientPlayer) []byte {
	var pb []byte
	pb = wire.AppendString(pb, 1, p.Guid)
	pb = wire.AppendString(pb, 2, p.Name)
	pb = wire.AppendUint(pb, 3, uint64(p.Role))
	pb = wire.AppendSint(pb, 4, int64(p.Score))
	return wire.AppendBytes(b, num, pb)
}

// payload returns the last payload field of a packet, following oneof rules.
func payload(b []byte) (wire.Field, error) {
	var last wire.Field
	found := false
	err := wire.Range(b, func(f wire.Field) error {
		if f.Type == protowire.BytesType {
			last, found = f, true
		}
		return nil
	})
	if err != nil {
		return wire.Field{}, fmt.Errorf("%w: %w", ErrMalformedPacket, err)
	}
	if !found {
		return wire.Field{}, ErrEmptyPacket
	}
	return last, nil
}

func UnmarshalClient(b []byte) (ClientMessage, error) {
	f, err := payload(b)
	if err != nil {
		return nil, err
	}

	var m ClientMessage
	switch f.Num {
	case FieldCanvasEvent, FieldCanvasKeyframe:
		return CanvasEvent{Data: f.Bytes, Keyframe: f.Num == FieldCanvasKeyframe}, nil
	case fieldJoinLobby:
		var jl JoinLobby
		err = wire.Range(f.Bytes, func(f wire.Field) error {
			switch f.Num {
			case 1:
				jl.Ack = uint32(f.Varint)
			case 2:
				jl.RoomName = f.String()
			case 3:
				jl.PlayerName = f.String()
			}
			return nil
		})
		m = jl
	case fieldReady:
		m = Ready{}
	case fieldSubjectChosen:
		var sc SubjectChosen
		err = wire.Range(f.Bytes, func(f wire.Field) error {
			if f.Num == 1 {
				s, err := parseSubject(f.Bytes)
				sc.Subject = s
				return err
			}
			return nil
		})
		m = sc
	case fieldGuess:
		var g Guess
		err = wire.Range(f.Bytes, func(f wire.Field) error {
			switch f.Num {
			case 1:
				g.Ack = uint32(f.Varint)
			case 2:
				g.Text = f.String()
			}
			return nil
		})
		m = g
	default:
		return nil, fmt.Errorf("%w: unknown client field %d", ErrMalformedPacket, f.Num)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPacket, err)
	}
	return m, nil
}

func UnmarshalServer(b []byte) (ServerMessage, error) {
	f, err := payload(b)
	if err != nil {
		return nil, err
	}

	var m ServerMessage
	switch f.Num {
	case FieldCanvasEvent, FieldCanvasKeyframe:
		return CanvasEvent{Data: f.Bytes, Keyframe: f.Num == FieldCanvasKeyframe}, nil
	case fieldJoinAck:
		var ack JoinAck
		err = wire.Range(f.Bytes, func(f wire.Field) error {
			switch f.Num {
			case 1:
				ack.Ack = uint32(f.Varint)
			case 2:
				p, err := parsePlayer(f.Bytes)
				ack.Player = p
				return err
			case 3:
				p, err := parsePlayer(f.Bytes)
				ack.Others = append(ack.Others, p)
				return err
			}
			return nil
		})
		m = ack
	case fieldJoinError:
		var je JoinError
		err = wire.Range(f.Bytes, func(f wire.Field) error {
			switch f.Num {
			case 1:
				je.Ack = uint32(f.Varint)
			case 2:
				je.Reason = f.String()
			}
			return nil
		})
		m = je
	case fieldSubjectChoices:
		var sc SubjectChoices
		err = wire.Range(f.Bytes, func(f wire.Field) error {
			if f.Num == 1 {
				s, err := parseSubject(f.Bytes)
				sc.Subjects = append(sc.Subjects, s)
				return err
			}
			return nil
		})
		m = sc
	case fieldNewSubject:
		var ns NewSubject
		err = wire.Range(f.Bytes, func(f wire.Field) error {
			switch f.Num {
			case 1:
				letters, err := f.Packed()
				for _, n := range letters {
					ns.Placeholder.Letters = append(ns.Placeholder.Letters, int(n))
				}
				return err
			case 2:
				ns.Placeholder.Topic = f.String()
			}
			return nil
		})
		m = ns
	case fieldGuessResult:
		var gr GuessResult
		err = wire.Range(f.Bytes, func(f wire.Field) error {
			switch f.Num {
			case 1:
				gr.Ack = uint32(f.Varint)
			case 2:
				gr.Correct = f.Bool()
			}
			return nil
		})
		m = gr
	case fieldNewPlayer:
		var np NewPlayer
		err = wire.Range(f.Bytes, func(f wire.Field) error {
			if f.Num == 1 {
				p, err := parsePlayer(f.Bytes)
				np.Player = p
				return err
			}
			return nil
		})
		m = np
	case fieldPlayerDisconnected:
		var pd PlayerDisconnected
		err = wire.Range(f.Bytes, func(f wire.Field) error {
			if f.Num == 1 {
				pd.Guid = f.String()
			}
			return nil
		})
		m = pd
	case fieldWinnerOfRound:
		var w WinnerOfRound
		err = wire.Range(f.Bytes, func(f wire.Field) error {
			switch f.Num {
			case 1:
				w.Guid = f.String()
			case 2:
				w.Score = int(f.Sint())
			case 3:
				w.ArtistGuid = f.String()
			case 4:
				w.ArtistScore = int(f.Sint())
			}
			return nil
		})
		m = w
	case fieldNewArtist:
		var na NewArtist
		err = wire.Range(f.Bytes, func(f wire.Field) error {
			if f.Num == 1 {
				na.Guid = f.String()
			}
			return nil
		})
		m = na
	case fieldPlayerGuess:
		var pg PlayerGuess
		err = wire.Range(f.Bytes, func(f wire.Field) error {
			switch f.Num {
			case 1:
				pg.Guid = f.String()
			case 2:
				pg.Guess = f.String()
			}
			return nil
		})
		m = pg
	default:
		return nil, fmt.Errorf("%w: unknown server field %d", ErrMalformedPacket, f.Num)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPacket, err)
	}
	return m, nil
}

func parseSubject(b []byte) (domain.Subject, error) {
	var s domain.Subject
	err := wire.Range(b, func(f wire.Field) error {
		switch f.Num {
		case 1:
			s.Text = f.String()
		case 2:
			s.Topic = f.String()
		}
		return nil
	})
	return s, err
}

func parsePlayer(b []byte) (domain.ClientPlayer, error) {
	var p domain.ClientPlayer
	err := wire.Range(b, func(f wire.Field) error {
		switch f.Num {
		case 1:
			p.Guid = f.String()
		case 2:
			p.Name = f.String()
		case 3:
			p.Role = domain.Role(f.Varint)
		case 4:
			p.Score = int(f.Sint())
		}
		return nil
	})
	return p, err
}
