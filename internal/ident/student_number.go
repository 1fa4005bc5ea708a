// Package ident builds human-readable identifiers such as student
// numbers.  The format is a pure function of prefix, year and suffix;
// the suffix comes from an injectable source so tests can pin it.
package ident

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// DefaultWidth is the number of digits the suffix is padded to.
const DefaultWidth = 4

// SuffixSource yields the numeric tail of an identifier for a given
// prefix and year.
type SuffixSource interface {
	Next(ctx context.Context, prefix string, year int) (int, error)
}

// SuffixFunc adapts a plain function to SuffixSource.
type SuffixFunc func(ctx context.Context, prefix string, year int) (int, error)

// Next calls f.
func (f SuffixFunc) Next(ctx context.Context, prefix string, year int) (int, error) {
	return f(ctx, prefix, year)
}

// Format renders prefix + 4-digit year + suffix zero-padded to width.
// A suffix wider than width is kept intact rather than truncated.
func Format(prefix string, year, suffix, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	return fmt.Sprintf("%s%04d%0*d", strings.ToUpper(strings.TrimSpace(prefix)), year, width, suffix)
}

// Generator produces identifiers from a clock and a suffix source.
type Generator struct {
	Prefix string
	Width  int
	Now    func() time.Time
	Source SuffixSource
}

// Next returns a freshly formatted identifier.
func (g *Generator) Next(ctx context.Context) (string, error) {
	if g.Source == nil {
		return "", errors.New("ident: no suffix source configured")
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	year := now().UTC().Year()
	suffix, err := g.Source.Next(ctx, g.Prefix, year)
	if err != nil {
		return "", fmt.Errorf("ident: next suffix: %w", err)
	}
	if suffix < 0 {
		return "", fmt.Errorf("ident: negative suffix %d", suffix)
	}
	return Format(g.Prefix, year, suffix, g.Width), nil
}

// RandomSource draws suffixes uniformly from [1, Max].  A fixed seed gives
// a deterministic sequence.
type RandomSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
	Max int
}

// NewRandomSource seeds a RandomSource.
func NewRandomSource(seed int64, max int) *RandomSource {
	if max <= 0 {
		max = 9999
	}
	return &RandomSource{rnd: rand.New(rand.NewSource(seed)), Max: max}
}

// Next returns the next random suffix.
func (s *RandomSource) Next(_ context.Context, _ string, _ int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(s.Max) + 1, nil
}

// SequenceSource hands out consecutive suffixes per prefix and year,
// starting at Start (default 1).  It is process-local.
type SequenceSource struct {
	mu    sync.Mutex
	Start int
	next  map[string]int
}

// Next returns the next suffix for prefix and year.
func (s *SequenceSource) Next(_ context.Context, prefix string, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next == nil {
		s.next = make(map[string]int)
	}
	key := fmt.Sprintf("%s/%d", strings.ToUpper(strings.TrimSpace(prefix)), year)
	n, ok := s.next[key]
	if !ok {
		n = s.Start
		if n <= 0 {
			n = 1
		}
	}
	s.next[key] = n + 1
	return n, nil
}
