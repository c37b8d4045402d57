package search

import (
	"context"
	"sync"

	"github.com/wasteviz/wasteviz/app/dataset"
)

// LazyIndex builds a LabelIndex from the first successful records load.
// Failed loads are retried on the next call.
type LazyIndex struct {
	load func(context.Context) ([]dataset.WasteRecord, error)

	mu  sync.Mutex
	idx *LabelIndex
}

func NewLazyIndex(load func(context.Context) ([]dataset.WasteRecord, error)) *LazyIndex {
	return &LazyIndex{load: load}
}

func (l *LazyIndex) Index(ctx context.Context) (*LabelIndex, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.idx != nil {
		return l.idx, nil
	}
	rows, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := NewLabelIndex(rows)
	if err != nil {
		return nil, err
	}
	l.idx = idx
	return idx, nil
}

func (l *LazyIndex) Suggest(ctx context.Context, partial string, limit int) ([]Suggestion, error) {
	idx, err := l.Index(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Suggest(ctx, partial, limit)
}

func (l *LazyIndex) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.idx == nil {
		return nil
	}
	return l.idx.Close()
}
