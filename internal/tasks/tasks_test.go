package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/tansive/tansive-pipedrive/internal/common/logtrace"
	"github.com/tansive/tansive-pipedrive/pkg/pipedrive"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{
		"pipedrive.deals.Create",
		"pipedrive.deals.Get",
		"pipedrive.deals.Update",
		"pipedrive.notes.Create",
		"pipedrive.notes.Get",
		"pipedrive.notes.Update",
		"pipedrive.persons.Create",
		"pipedrive.persons.Get",
		"pipedrive.persons.Update",
	}, r.Types())

	for _, typ := range r.Types() {
		task, err := r.Lookup(typ)
		require.NoError(t, err)
		assert.Equal(t, typ, task.Type())
		assert.NotEmpty(t, task.Description())
		assert.True(t, gjson.Valid(task.Schema()), typ)
		assert.Equal(t, "apiToken", gjson.Get(task.Schema(), "required.0").String())
		assert.False(t, gjson.Get(task.Schema(), "additionalProperties").Bool())
	}

	_, err := r.Lookup("pipedrive.leads.Create")
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestRegistryRun(t *testing.T) {
	srv := newFakeAPI(t)
	rc := newRunContext(srv)
	r := DefaultRegistry()

	t.Run("runs the step", func(t *testing.T) {
		out, err := r.Run(context.Background(), rc, Step{
			ID:      "create-person",
			Type:    "pipedrive.persons.Create",
			Version: "^0.1",
			Params:  map[string]any{"name": "Ada"},
		})
		require.NoError(t, err)
		created, ok := out.(*CreatePersonOutput)
		require.True(t, ok)
		assert.Equal(t, 1, created.PersonID)
	})

	t.Run("propagates the request id", func(t *testing.T) {
		ctx := logtrace.WithRequestID(context.Background(), "req-42")
		_, err := r.Run(ctx, rc, Step{
			Type:   "pipedrive.persons.Get",
			Params: map[string]any{"personId": 1},
		})
		require.NoError(t, err)
		reqs := srv.Requests()
		assert.Equal(t, "req-42", reqs[len(reqs)-1].Header.Get(logtrace.HeaderRequestID))
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := r.Run(context.Background(), rc, Step{Type: "pipedrive.persons.Merge"})
		assert.ErrorIs(t, err, ErrUnknownTask)
		assert.ErrorIs(t, err, pipedrive.ErrConfiguration)
	})

	t.Run("incompatible version", func(t *testing.T) {
		before := srv.RequestCount()
		_, err := r.Run(context.Background(), rc, Step{
			Type:    "pipedrive.persons.Create",
			Version: ">= 1.0.0",
			Params:  map[string]any{"name": "Ada"},
		})
		assert.ErrorIs(t, err, ErrIncompatibleVersion)
		assert.Equal(t, before, srv.RequestCount())
	})

	t.Run("step values override defaults", func(t *testing.T) {
		_, err := r.Run(context.Background(), rc, Step{
			Type:   "pipedrive.persons.Get",
			Params: map[string]any{"personId": 1, "apiUrl": "ftp://example.com"},
		})
		assert.ErrorIs(t, err, ErrInvalidParameters)
	})
}

func TestRunCanceled(t *testing.T) {
	srv := newFakeAPI(t)
	rc := newRunContext(srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := GetPerson.Run(ctx, rc, map[string]any{"personId": 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, pipedrive.ErrRequestCanceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithDefaults(t *testing.T) {
	rc := &RunContext{DefaultAPIToken: "default-token", DefaultAPIURL: "https://example.pipedrive.com/api/v2"}

	got := withDefaults(rc, map[string]any{"name": "Ada"})
	assert.Equal(t, map[string]any{
		"name":     "Ada",
		"apiToken": "default-token",
		"apiUrl":   "https://example.pipedrive.com/api/v2",
	}, got)

	params := map[string]any{"apiToken": "own-token"}
	got = withDefaults(rc, params)
	assert.Equal(t, "own-token", got["apiToken"])
	assert.NotContains(t, params, "apiUrl")

	assert.Empty(t, withDefaults(&RunContext{}, nil))
}

func TestExpectSuccess(t *testing.T) {
	assert.NoError(t, expectSuccess(&pipedrive.Envelope[int]{Success: true}, "count"))

	err := expectSuccess(&pipedrive.Envelope[int]{}, "count")
	assert.ErrorIs(t, err, pipedrive.ErrApplication)
	assert.Equal(t, "failed to count: no error reported", err.Error())
}
