package client

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// --- ticker.Creator ---

type MockTickerCreator struct {
	mock.Mock
}

func (m *MockTickerCreator) Create(d time.Duration) (<-chan time.Time, func()) {
	args := m.Called(d)
	return args.Get(0).(chan time.Time), func() {}
}

// --- canvassync.Sender ---

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendCanvasEvent(ctx context.Context, data []byte, keyframe bool) error {
	args := m.Called(ctx, data, keyframe)
	return args.Error(0)
}

// --- Guesser ---

type MockGuesser struct {
	mock.Mock
}

func (m *MockGuesser) Guess(ctx context.Context, text string) (bool, error) {
	args := m.Called(ctx, text)
	return args.Bool(0), args.Error(1)
}
