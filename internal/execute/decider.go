package execute

import (
	"context"
	"sync"
)

// Decider answers the yes/no questions that come up around execution:
// plan confirmations, the config overwrite guard, and the
// dependency-failure continue gate.
type Decider interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(ctx context.Context, question string) (bool, error)

// Confirm calls f.
func (f DeciderFunc) Confirm(ctx context.Context, question string) (bool, error) {
	return f(ctx, question)
}

// AssumeYes accepts everything without asking. Used for --yes runs.
func AssumeYes() Decider {
	return DeciderFunc(func(context.Context, string) (bool, error) {
		return true, nil
	})
}

// AssumeNo declines everything. Used when stdout is not a terminal and the
// operator did not pre-approve.
func AssumeNo() Decider {
	return DeciderFunc(func(context.Context, string) (bool, error) {
		return false, nil
	})
}

// Script is a Decider for tests: it answers questions in order and records
// what was asked. Questions beyond the scripted answers are declined.
type Script struct {
	mu      sync.Mutex
	Answers []bool
	Asked   []string
}

// Confirm pops the next scripted answer.
func (s *Script) Confirm(_ context.Context, question string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Asked = append(s.Asked, question)
	if len(s.Answers) == 0 {
		return false, nil
	}
	answer := s.Answers[0]
	s.Answers = s.Answers[1:]
	return answer, nil
}
