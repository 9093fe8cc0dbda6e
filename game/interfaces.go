package game

import (
	"context"
	"time"

	"imagine/domain"
)

type NetworkSession interface {
	Close(errCode string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
	SetReadDeadline(t time.Time) error
}

// SubjectSource draws up to n random subjects whose text is not in exclude.
type SubjectSource interface {
	RandomSubjects(ctx context.Context, n int, exclude []string) ([]domain.Subject, error)
}

// roomParent is the part of the lobby a room talks back to.
type roomParent interface {
	RequestUpdateDescription(desc domain.RoomDescription)
	RequestRemoveRoom(r *room)
}
