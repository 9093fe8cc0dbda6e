package canvassync

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

// --- Sender ---

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendCanvasEvent(ctx context.Context, data []byte, keyframe bool) error {
	args := m.Called(ctx, data, keyframe)
	return args.Error(0)
}
