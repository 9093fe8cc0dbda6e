package catalog

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"

	"imagine/domain"
)

var defaultSubjects = []domain.Subject{
	{Text: "Pirates of the Carribean", Topic: "Film"},
	{Text: "Shrek", Topic: "Film"},
	{Text: "Titanic", Topic: "Film"},
	{Text: "Harry Potter", Topic: "Fictional Character"},
	{Text: "Jack Sparrow", Topic: "Fictional Character"},
	{Text: "Jon Snow", Topic: "Fictional Character"},
	{Text: "Hulk", Topic: "Fictional Character"},
	{Text: "Lord of the Rings", Topic: "Book"},
	{Text: "Bible", Topic: "Book"},
	{Text: "Moon Landing", Topic: "Event"},
	{Text: "Game of Thrones", Topic: "TV Show"},
	{Text: "Breaking Bad", Topic: "TV Show"},
	{Text: "Black Mirror", Topic: "TV Show"},
	{Text: "Call of Duty", Topic: "Video Game"},
	{Text: "World of Warcraft", Topic: "Video Game"},
	{Text: "Skyrim", Topic: "Video Game"},
}

func DefaultSubjects() []domain.Subject {
	return slices.Clone(defaultSubjects)
}

// Memory serves subjects from a fixed in-process list.
type Memory struct {
	mu       sync.Mutex
	subjects []domain.Subject
	rng      *rand.Rand
}

type Option func(*Memory)

// WithRand makes the draw order deterministic.
func WithRand(r *rand.Rand) Option {
	return func(m *Memory) {
		m.rng = r
	}
}

func NewMemory(subjects []domain.Subject, opts ...Option) *Memory {
	m := &Memory{
		subjects: slices.Clone(subjects),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RandomSubjects draws up to n distinct subjects whose text is not listed in
// exclude.
func (m *Memory) RandomSubjects(ctx context.Context, n int, exclude []string) ([]domain.Subject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := make([]domain.Subject, 0, len(m.subjects))
	for _, s := range m.subjects {
		if !slices.Contains(exclude, s.Text) {
			candidates = append(candidates, s)
		}
	}

	m.mu.Lock()
	m.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	m.mu.Unlock()

	if n < len(candidates) {
		candidates = candidates[:n]
	}
	return candidates, nil
}
