package resolver

import (
	"context"
	"errors"

	"kwhmi/agent/internal/keyword"
)

var ErrSourceClosed = errors.New("keyword source closed")

// ChanSource adapts a channel of sets to a Source.
type ChanSource <-chan keyword.Set

func (c ChanSource) Next(ctx context.Context) (keyword.Set, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case s, ok := <-c:
		if !ok {
			return 0, ErrSourceClosed
		}
		return s, nil
	}
}
