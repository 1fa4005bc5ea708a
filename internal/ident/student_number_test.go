package ident

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "STU20260007", Format("STU", 2026, 7, 4))
	assert.Equal(t, "STU20261234", Format("stu ", 2026, 1234, 4))
	assert.Equal(t, "STU202612345", Format("STU", 2026, 12345, 4))
	assert.Equal(t, "ADM2025000042", Format("ADM", 2025, 42, 6))
	assert.Equal(t, "X20260001", Format("X", 2026, 1, 0))
}

func TestGenerator_UsesClockAndSource(t *testing.T) {
	var gotPrefix string
	var gotYear int
	g := &Generator{
		Prefix: "STU",
		Width:  4,
		Now:    func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
		Source: SuffixFunc(func(_ context.Context, prefix string, year int) (int, error) {
			gotPrefix, gotYear = prefix, year
			return 12, nil
		}),
	}

	id, err := g.Next(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "STU20260012", id)
	assert.Equal(t, "STU", gotPrefix)
	assert.Equal(t, 2026, gotYear)
}

func TestGenerator_SourceError(t *testing.T) {
	g := &Generator{
		Prefix: "STU",
		Source: SuffixFunc(func(context.Context, string, int) (int, error) {
			return 0, errors.New("db down")
		}),
	}
	_, err := g.Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")

	_, err = (&Generator{Prefix: "STU"}).Next(context.Background())
	require.Error(t, err)
}

func TestRandomSource_DeterministicWithSeed(t *testing.T) {
	a := NewRandomSource(42, 9999)
	b := NewRandomSource(42, 9999)
	for i := 0; i < 10; i++ {
		x, _ := a.Next(context.Background(), "STU", 2026)
		y, _ := b.Next(context.Background(), "STU", 2026)
		assert.Equal(t, x, y)
		assert.GreaterOrEqual(t, x, 1)
		assert.LessOrEqual(t, x, 9999)
	}
}

func TestSequenceSource_PerYear(t *testing.T) {
	var s SequenceSource
	ctx := context.Background()
	a, _ := s.Next(ctx, "STU", 2026)
	b, _ := s.Next(ctx, "stu", 2026)
	c, _ := s.Next(ctx, "STU", 2027)
	assert.Equal(t, []int{1, 2, 1}, []int{a, b, c})

	g := &Generator{Prefix: "STU", Source: &SequenceSource{Start: 41},
		Now: func() time.Time { return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC) }}
	id, err := g.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "STU20260041", id)
}
