package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopStrategy struct {
	params map[string]any
}

func (s *noopStrategy) Name() string { return "noop" }

func (s *noopStrategy) Params() map[string]any { return s.params }

func (s *noopStrategy) OnBar(context.Context, *Bar, Trader) error { return nil }

func TestRegistryCreate(t *testing.T) {
	Register("noop-test", Descriptor{
		Factory: func(params map[string]any) (Strategy, error) {
			return &noopStrategy{params: params}, nil
		},
		Grid: []map[string]any{{"x": 1}, {"x": 2}},
	})

	s, err := Create("noop-test", map[string]any{"x": 3})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Params()["x"])

	desc, err := Lookup("noop-test")
	require.NoError(t, err)
	assert.Len(t, desc.Grid, 2)

	assert.Contains(t, Names(), "noop-test")
}

func TestRegistryUnknownName(t *testing.T) {
	_, err := Create("does-not-exist", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")

	_, err = Lookup("does-not-exist")
	require.Error(t, err)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("dup-test", Descriptor{Factory: func(map[string]any) (Strategy, error) {
		return &noopStrategy{}, nil
	}})
	assert.Panics(t, func() {
		Register("dup-test", Descriptor{Factory: func(map[string]any) (Strategy, error) {
			return &noopStrategy{}, nil
		}})
	})
}
