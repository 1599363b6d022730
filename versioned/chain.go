package versioned

import (
	"fmt"
	"sort"
)

// Step upgrades a payload written under From to From+1.
type Step[T any] struct {
	From    int
	Migrate func(T) (T, error)
}

// Chain is an ordered set of single-version steps. Migrating from version v
// applies the steps v, v+1, ... up to the current version.
type Chain[T any] struct {
	current      int
	minSupported int
	steps        map[int]func(T) (T, error)
}

// NewChain builds a chain upgrading payloads from minSupported to current.
func NewChain[T any](current, minSupported int, steps ...Step[T]) (*Chain[T], error) {
	if minSupported > current {
		return nil, fmt.Errorf("min supported version %d is above current version %d", minSupported, current)
	}
	c := &Chain[T]{
		current:      current,
		minSupported: minSupported,
		steps:        make(map[int]func(T) (T, error), len(steps)),
	}
	for _, s := range steps {
		if s.From < minSupported || s.From >= current {
			return nil, fmt.Errorf("migration step from version %d is outside [%d, %d)", s.From, minSupported, current)
		}
		if _, dup := c.steps[s.From]; dup {
			return nil, fmt.Errorf("duplicate migration step from version %d", s.From)
		}
		c.steps[s.From] = s.Migrate
	}
	for v := minSupported; v < current; v++ {
		if _, ok := c.steps[v]; !ok {
			return nil, fmt.Errorf("%w: %d -> %d", ErrMissingStep, v, v+1)
		}
	}
	return c, nil
}

// Current returns the version the chain migrates to.
func (c *Chain[T]) Current() int { return c.current }

// MinSupported returns the oldest version the chain accepts.
func (c *Chain[T]) MinSupported() int { return c.minSupported }

// Versions returns the source versions with a registered step, ascending.
func (c *Chain[T]) Versions() []int {
	out := make([]int, 0, len(c.steps))
	for v := range c.steps {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Migrate implements MigrateFunc.
func (c *Chain[T]) Migrate(obj T, fromVer int) (T, error) {
	if fromVer < c.minSupported || fromVer > c.current {
		var zero T
		return zero, fmt.Errorf("%w: %d (supported %d..%d)", ErrUnsupportedVersion, fromVer, c.minSupported, c.current)
	}
	out := obj
	for v := fromVer; v < c.current; v++ {
		next, err := c.steps[v](out)
		if err != nil {
			var zero T
			return zero, fmt.Errorf("migrate %d -> %d: %w", v, v+1, err)
		}
		out = next
	}
	return out, nil
}
