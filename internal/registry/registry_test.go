package registry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/task"
	"github.com/zclconf/go-cty/cty"
)

func body(context.Context, *task.ExecutionContext, task.Options) error { return nil }

type moduleFunc func(r *Registry) error

func (f moduleFunc) Register(r *Registry) error { return f(r) }

func TestRegister(t *testing.T) {
	t.Run("keeps registration order", func(t *testing.T) {
		r := New(context.Background())
		require.NoError(t, r.Register(task.Definition{Name: "lint", Body: body}))
		require.NoError(t, r.Register(task.Definition{Name: "format", Body: body}))
		require.NoError(t, r.Register(task.Definition{Name: "build", Body: body}))

		assert.Equal(t, []string{"lint", "format", "build"}, r.Names())
		assert.Equal(t, 3, r.Len())
		def, ok := r.Lookup("format")
		require.True(t, ok)
		assert.Equal(t, "format", def.Name)
	})

	t.Run("duplicate name leaves the registry unchanged", func(t *testing.T) {
		r := New(context.Background())
		require.NoError(t, r.Register(task.Definition{Name: "test", Description: "first", Body: body}))

		err := r.Register(task.Definition{Name: "test", Description: "second", Body: body})

		var dup *task.DuplicateTaskError
		require.True(t, errors.As(err, &dup))
		assert.Equal(t, "test", dup.Name)
		assert.ErrorIs(t, err, task.ErrDuplicateTask)
		assert.Equal(t, 1, r.Len())
		def, _ := r.Lookup("test")
		assert.Equal(t, "first", def.Description)
	})

	t.Run("invalid definition is rejected", func(t *testing.T) {
		r := New(context.Background())
		err := r.Register(task.Definition{Name: "nobody"})
		assert.ErrorContains(t, err, "has no body")
		assert.Zero(t, r.Len())
	})

	t.Run("stored definition does not alias the caller's slices", func(t *testing.T) {
		r := New(context.Background())
		prereqs := []string{"a"}
		require.NoError(t, r.Register(task.Definition{Name: "b", Prerequisites: prereqs, Body: body}))
		prereqs[0] = "changed"

		def, _ := r.Lookup("b")
		assert.Equal(t, []string{"a"}, def.Prerequisites)
	})

	t.Run("normalizing defaults leaves the caller's options alone", func(t *testing.T) {
		r := New(context.Background())
		opts := []task.Option{{Name: "jobs", Type: cty.Number, Default: cty.StringVal("4")}}

		require.NoError(t, r.Register(task.Definition{Name: "build", Options: opts, Body: body}))

		assert.True(t, opts[0].Default.RawEquals(cty.StringVal("4")))
		def, _ := r.Lookup("build")
		assert.True(t, def.Options[0].Default.Equals(cty.NumberIntVal(4)).True())
	})

	t.Run("logs through the context logger", func(t *testing.T) {
		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
		r := New(ctxlog.WithLogger(context.Background(), logger))

		require.NoError(t, r.Register(task.Definition{Name: "lint", Body: body}))

		assert.Contains(t, logs.String(), "name=lint")
	})

	t.Run("frozen registry refuses new tasks", func(t *testing.T) {
		r := New(context.Background())
		r.Freeze()
		err := r.Register(task.Definition{Name: "late", Body: body})
		assert.ErrorIs(t, err, ErrFrozen)
		assert.True(t, r.Frozen())
	})
}

func TestRegisterModules(t *testing.T) {
	r := New(context.Background())
	first := moduleFunc(func(r *Registry) error {
		return r.Register(task.Definition{Name: "clean", Body: body})
	})
	second := moduleFunc(func(r *Registry) error {
		return r.Register(task.Definition{Name: "clean", Body: body})
	})

	err := r.RegisterModules(first, second)

	assert.ErrorIs(t, err, task.ErrDuplicateTask)
	assert.Equal(t, []string{"clean"}, r.Names())
}

func TestDefinitions(t *testing.T) {
	r := New(context.Background())
	require.NoError(t, r.Register(task.Definition{Name: "x", Body: body}))
	require.NoError(t, r.Register(task.Definition{Name: "y", Body: body}))

	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "x", defs[0].Name)
	assert.Equal(t, "y", defs[1].Name)
}

func TestCheckCycles(t *testing.T) {
	testCases := []struct {
		name     string
		defs     []task.Definition
		wantPath []string
	}{
		{
			name: "acyclic",
			defs: []task.Definition{
				{Name: "clean", Prerequisites: []string{"clean-build", "clean-coverage"}, Body: body},
				{Name: "clean-build", Body: body},
				{Name: "clean-coverage", Body: body},
			},
		},
		{
			name: "unregistered prerequisite is ignored",
			defs: []task.Definition{
				{Name: "a", Prerequisites: []string{"missing"}, Body: body},
			},
		},
		{
			name: "two task cycle",
			defs: []task.Definition{
				{Name: "a", Prerequisites: []string{"b"}, Body: body},
				{Name: "b", Prerequisites: []string{"a"}, Body: body},
			},
			wantPath: []string{"a", "b", "a"},
		},
		{
			name: "cycle away from the first task",
			defs: []task.Definition{
				{Name: "lint", Body: body},
				{Name: "x", Prerequisites: []string{"y"}, Body: body},
				{Name: "y", Prerequisites: []string{"z"}, Body: body},
				{Name: "z", Prerequisites: []string{"x"}, Body: body},
			},
			wantPath: []string{"x", "y", "z", "x"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			r := New(context.Background())
			for _, def := range tc.defs {
				require.NoError(t, r.Register(def))
			}

			// --- Act ---
			err := r.CheckCycles()

			// --- Assert ---
			if tc.wantPath == nil {
				require.NoError(t, err)
				return
			}
			var cycle *task.CyclicDependencyError
			require.ErrorAs(t, err, &cycle)
			assert.Equal(t, tc.wantPath, cycle.Path)
		})
	}
}
