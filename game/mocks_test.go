package game

import (
	"context"
	"time"

	"imagine/domain"

	"github.com/stretchr/testify/mock"
)

// --- NetworkSession ---

type MockWebsocketConnection struct {
	mock.Mock
}

func (m *MockWebsocketConnection) Close(errCode string) {
	m.Called(errCode)
}

func (m *MockWebsocketConnection) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockWebsocketConnection) Read() ([]byte, error) {
	args := m.Called()
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockWebsocketConnection) Ping() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockWebsocketConnection) SetReadDeadline(t time.Time) error {
	args := m.Called(t)
	return args.Error(0)
}

// --- SubjectSource ---

type MockSubjectSource struct {
	mock.Mock
}

func (m *MockSubjectSource) RandomSubjects(ctx context.Context, n int, exclude []string) ([]domain.Subject, error) {
	args := m.Called(ctx, n, exclude)
	subjects, _ := args.Get(0).([]domain.Subject)
	return subjects, args.Error(1)
}

// --- roomParent ---

type MockLobby struct {
	mock.Mock
}

func (m *MockLobby) RequestUpdateDescription(desc domain.RoomDescription) {
	m.Called(desc)
}

func (m *MockLobby) RequestRemoveRoom(r *room) {
	m.Called(r)
}

// --- ticker.Creator ---

type MockTickerCreator struct {
	mock.Mock
}

func (m *MockTickerCreator) Create(d time.Duration) (<-chan time.Time, func()) {
	args := m.Called(d)
	return args.Get(0).(chan time.Time), func() {}
}
