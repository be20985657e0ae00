package counterfactual

import (
	"fmt"
	"strings"
	"time"
)

// Order controls how suggestions are returned.
type Order int

// Orders.
const (
	// OrderIncrement keeps attribute/increment declaration order.
	OrderIncrement Order = iota
	// OrderImprovement puts the largest probability first.
	OrderImprovement
)

func (o Order) String() string {
	if o == OrderImprovement {
		return "improvement"
	}
	return "increment"
}

// ParseOrder parses "increment" or "improvement".
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "increment":
		return OrderIncrement, nil
	case "improvement":
		return OrderImprovement, nil
	default:
		return OrderIncrement, fmt.Errorf("%w: %q", ErrUnknownOrder, s)
	}
}

// Option applies a configuration option to the Suggester.
type Option func(*Suggester)

// WithAttributes sets the numeric fields that are perturbed, in order.
func WithAttributes(attrs ...string) Option {
	return func(s *Suggester) {
		if len(attrs) > 0 {
			s.attributes = append([]string(nil), attrs...)
		}
	}
}

// WithIncrements sets the relative increments tried for each attribute.
// Non-positive increments are ignored.
func WithIncrements(incs ...float64) Option {
	return func(s *Suggester) {
		var kept []float64
		for _, inc := range incs {
			if inc > 0 {
				kept = append(kept, inc)
			}
		}
		if len(kept) > 0 {
			s.increments = kept
		}
	}
}

// WithOrder sets the result order.
func WithOrder(o Order) Option {
	return func(s *Suggester) {
		s.order = o
	}
}

// WithBudget bounds the wall-clock time of one search. Zero disables it.
func WithBudget(d time.Duration) Option {
	return func(s *Suggester) {
		if d >= 0 {
			s.budget = d
		}
	}
}

// WithRequireFavorable only keeps suggestions that cross the threshold.
func WithRequireFavorable(require bool) Option {
	return func(s *Suggester) {
		s.requireFavorable = require
	}
}
