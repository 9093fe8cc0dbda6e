package domain

import (
	"strings"
	"unicode/utf8"
)

type Subject struct {
	Text  string `json:"text"`
	Topic string `json:"topic"`
}

// Placeholder is what guessers see of the current subject: the letter count of
// every space separated word plus the topic.
type Placeholder struct {
	Letters []int  `json:"placeholder"`
	Topic   string `json:"topic"`
}

func NewPlaceholder(s Subject) Placeholder {
	words := strings.Split(s.Text, " ")
	letters := make([]int, 0, len(words))
	for _, w := range words {
		letters = append(letters, utf8.RuneCountInString(w))
	}
	return Placeholder{Letters: letters, Topic: s.Topic}
}

func (p Placeholder) TotalLetters() int {
	total := 0
	for _, n := range p.Letters {
		total += n
	}
	return total
}

func (s Subject) IsGuessedBy(guess string) bool {
	return guess != "" && strings.EqualFold(s.Text, guess)
}

// JoinGuess cuts typed letters into words following the placeholder and joins
// them with single spaces. Whitespace in letters is ignored; letters beyond the
// placeholder are dropped.
func JoinGuess(letters string, p Placeholder) string {
	compact := []rune(strings.Join(strings.Fields(letters), ""))
	words := make([]string, 0, len(p.Letters))

	last := 0
	for _, n := range p.Letters {
		next := min(last+n, len(compact))
		words = append(words, string(compact[last:next]))
		last = next
	}
	return strings.Join(words, " ")
}
