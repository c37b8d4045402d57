// Package sequencer hands out operation tokens so that slow redraws can tell
// they were overtaken by a newer user action and drop their results.
package sequencer

import "sync/atomic"

type Token uint64

type Sequencer struct {
	n atomic.Uint64
}

// Next starts a new operation, superseding all previous ones.
func (s *Sequencer) Next() Token {
	return Token(s.n.Add(1))
}

// IsCurrent reports whether no operation was started after tok.
func (s *Sequencer) IsCurrent(tok Token) bool {
	return s.n.Load() == uint64(tok)
}

func (s *Sequencer) Current() Token {
	return Token(s.n.Load())
}
