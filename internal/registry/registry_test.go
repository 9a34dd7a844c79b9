package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actiond/actiond/internal/schema"
	pkgerrors "github.com/actiond/actiond/pkg/errors"
)

func testAction(name string) *Action {
	return &Action{
		Name:       name,
		Enabled:    true,
		EntryPoint: "/tmp/test/" + name + ".sh",
		RunnerType: "shell",
		Parameters: schema.Schema{
			"a": {Type: schema.TypeString, Default: "abc"},
		},
	}
}

func TestMemoryActions_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryActions()

	action := testAction("st2.dummy.action1")
	require.NoError(t, store.Create(ctx, action))
	require.NotEmpty(t, action.ID, "Create should assign an ID")

	byID, err := store.GetByID(ctx, action.ID)
	require.NoError(t, err)
	assert.Equal(t, action.Name, byID.Name)

	byName, err := store.GetByName(ctx, "st2.dummy.action1")
	require.NoError(t, err)
	assert.Equal(t, action.ID, byName.ID)
}

func TestMemoryActions_DuplicateName(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryActions()

	require.NoError(t, store.Create(ctx, testAction("dup")))
	err := store.Create(ctx, testAction("dup"))
	assert.True(t, pkgerrors.IsValidation(err), "duplicate name should be a validation error, got %v", err)
}

func TestMemoryActions_InvalidSchemaRejected(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryActions()

	action := testAction("bad")
	action.Parameters = schema.Schema{"x": {Type: "integer"}}
	err := store.Create(ctx, action)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestMemoryActions_ListOrderAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryActions()

	first := testAction("first")
	second := testAction("second")
	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.Create(ctx, second))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Name, "List must preserve registration order")

	require.NoError(t, store.Delete(ctx, first.ID))

	_, err = store.GetByID(ctx, first.ID)
	assert.True(t, pkgerrors.IsNotFound(err))
	_, err = store.GetByName(ctx, "first")
	assert.True(t, pkgerrors.IsNotFound(err))

	all, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestMemoryActions_ReturnsClones(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryActions()
	require.NoError(t, store.Create(ctx, testAction("st2.dummy.action1")))

	got, err := store.GetByName(ctx, "st2.dummy.action1")
	require.NoError(t, err)

	// Mutating the returned action must not touch registry state.
	got.Enabled = false
	got.Parameters["a"] = schema.Field{Type: schema.TypeNumber}
	got.Parameters["injected"] = schema.Field{Type: schema.TypeString}

	again, err := store.GetByID(ctx, got.ID)
	require.NoError(t, err)
	assert.True(t, again.Enabled)
	assert.Equal(t, schema.TypeString, again.Parameters["a"].Type)
	assert.NotContains(t, again.Parameters, "injected")

	all, err := store.List(ctx)
	require.NoError(t, err)
	all[0].Parameters["x"] = schema.Field{Type: schema.TypeString}
	again, err = store.GetByID(ctx, got.ID)
	require.NoError(t, err)
	assert.NotContains(t, again.Parameters, "x")
}

func TestMemoryRunnerTypes_ReturnsClones(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRunnerTypes(BuiltinRunnerTypes()...)

	shell, err := store.GetByName(ctx, "shell")
	require.NoError(t, err)
	shell.Parameters["cmd"] = schema.Field{Type: schema.TypeString, Required: false}

	again, err := store.GetByName(ctx, "shell")
	require.NoError(t, err)
	assert.True(t, again.Parameters["cmd"].Required, "mutation through a lookup result leaked into the catalog")
}

func TestMemoryRunnerTypes_Lookup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRunnerTypes(BuiltinRunnerTypes()...)

	shell, err := store.GetByName(ctx, "shell")
	require.NoError(t, err)
	assert.NotEmpty(t, shell.ID)
	assert.True(t, shell.Parameters["cmd"].Required)

	_, err = store.GetByName(ctx, "kubernetes")
	assert.True(t, pkgerrors.IsNotFound(err))

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMergedSchema_ActionWins(t *testing.T) {
	rt := &RunnerType{
		Name: "shell",
		Parameters: schema.Schema{
			"cmd":     {Type: schema.TypeString, Required: true},
			"timeout": {Type: schema.TypeNumber, Default: 60},
		},
	}
	action := &Action{
		Name: "quick",
		Parameters: schema.Schema{
			"timeout": {Type: schema.TypeNumber, Default: 5},
		},
	}

	merged := MergedSchema(rt, action)
	assert.Equal(t, 5, merged["timeout"].Default)
	assert.True(t, merged["cmd"].Required, "runner type fields must survive the merge")
}
