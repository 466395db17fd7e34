package question

import (
	"context"
	"fmt"
	"sync"

	"github.com/arjunalabs/arjuna-backend/internal/model"
)

// Bank is a static fallback source used when the generative API is down.
// Questions are generic programming questions cycled per difficulty, so
// repeated fetches within a session do not repeat immediately.
type Bank struct {
	mu     sync.Mutex
	cursor map[model.Difficulty]int
}

// NewBank creates a Bank.
func NewBank() *Bank {
	return &Bank{cursor: make(map[model.Difficulty]int)}
}

// Fetch returns the next canned question for the difficulty.
func (b *Bank) Fetch(_ context.Context, language string, difficulty model.Difficulty) (*model.Question, error) {
	set, ok := bankQuestions[difficulty]
	if !ok || len(set) == 0 {
		return nil, fmt.Errorf("%w: no bank questions for difficulty %s", ErrUnavailable, difficulty)
	}

	b.mu.Lock()
	idx := b.cursor[difficulty] % len(set)
	b.cursor[difficulty]++
	b.mu.Unlock()

	q := set[idx] // copy
	q.Text = fmt.Sprintf("[%s] %s", language, q.Text)
	q.Difficulty = difficulty
	return &q, nil
}

var bankQuestions = map[model.Difficulty][]model.Question{
	model.DifficultyEasy: {
		{
			Text: "What does a comment in source code do when the program runs?",
			Options: []model.Option{
				{Key: "A", Text: "Nothing; it is ignored by the compiler or interpreter"},
				{Key: "B", Text: "It prints its text to the console"},
				{Key: "C", Text: "It slows the program down"},
				{Key: "D", Text: "It is sent to the user as documentation"},
			},
			CorrectOption: "A",
			Explanation:   "Comments are for humans and are stripped before execution.",
		},
		{
			Text: "Which data structure stores key-value pairs?",
			Options: []model.Option{
				{Key: "A", Text: "Stack"},
				{Key: "B", Text: "Hash map"},
				{Key: "C", Text: "Queue"},
				{Key: "D", Text: "Linked list"},
			},
			CorrectOption: "B",
			Explanation:   "Hash maps (dictionaries) associate keys with values.",
		},
	},
	model.DifficultyMedium: {
		{
			Text: "What is the average-case time complexity of binary search on a sorted array?",
			Options: []model.Option{
				{Key: "A", Text: "O(n)"},
				{Key: "B", Text: "O(n log n)"},
				{Key: "C", Text: "O(log n)"},
				{Key: "D", Text: "O(1)"},
			},
			CorrectOption: "C",
			Explanation:   "Each comparison halves the remaining search space.",
		},
		{
			Text: "Which of the following best describes a race condition?",
			Options: []model.Option{
				{Key: "A", Text: "Two threads reading the same immutable value"},
				{Key: "B", Text: "Program output depending on unsynchronized access ordering"},
				{Key: "C", Text: "A loop that never terminates"},
				{Key: "D", Text: "A function calling itself recursively"},
			},
			CorrectOption: "B",
			Explanation:   "Races arise when correctness depends on the timing of unsynchronized accesses.",
		},
	},
	model.DifficultyHard: {
		{
			Text: "A lock-free algorithm guarantees which of the following?",
			Options: []model.Option{
				{Key: "A", Text: "Every thread completes in bounded time"},
				{Key: "B", Text: "At least one thread makes progress in a finite number of steps"},
				{Key: "C", Text: "No thread ever waits on memory"},
				{Key: "D", Text: "Deadlock is possible but livelock is not"},
			},
			CorrectOption: "B",
			Explanation:   "Lock freedom is system-wide progress; wait freedom is the per-thread bound.",
		},
		{
			Text: "Which statement about amortized analysis is true?",
			Options: []model.Option{
				{Key: "A", Text: "It bounds the worst case of a single operation"},
				{Key: "B", Text: "It averages cost over a sequence of operations"},
				{Key: "C", Text: "It only applies to randomized algorithms"},
				{Key: "D", Text: "It measures expected cost over random inputs"},
			},
			CorrectOption: "B",
			Explanation:   "Amortized bounds average total cost across an operation sequence, not random inputs.",
		},
	},
}
