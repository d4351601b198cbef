package tasks

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/tansive/tansive-pipedrive/pkg/pipedrive"
)

func TestCreateNote(t *testing.T) {
	srv := newFakeAPI(t)
	rc := newRunContext(srv)

	out, err := runTask[CreateNoteOutput](t, CreateNote, rc, map[string]any{
		"content":          "Called about renewal",
		"dealId":           8,
		"pinnedToDealFlag": true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.NoteID)
	assert.Equal(t, "Called about renewal", out.Content)
	assert.Equal(t, 8, pipedrive.Deref(out.DealID))
	assert.Nil(t, out.PersonID)

	body := srv.Requests()[0].Body
	assert.Equal(t, "/api/v2/notes", srv.Requests()[0].Path)
	assert.True(t, gjson.Get(body, "pinned_to_deal_flag").Bool())
	assert.False(t, gjson.Get(body, "pinned_to_person_flag").Exists())
}

func TestCreateNoteLinkedToLead(t *testing.T) {
	srv := newFakeAPI(t)
	rc := newRunContext(srv)

	_, err := runTask[CreateNoteOutput](t, CreateNote, rc, map[string]any{
		"content": "Met at the conference",
		"leadId":  "adf21080-0e10-11eb-879b-05d71fb426ec",
	})
	require.NoError(t, err)
	assert.Equal(t, "adf21080-0e10-11eb-879b-05d71fb426ec", gjson.Get(srv.Requests()[0].Body, "lead_id").String())
}

func TestCreateNoteRequiresTarget(t *testing.T) {
	srv := newFakeAPI(t)
	rc := newRunContext(srv)

	_, err := runTask[CreateNoteOutput](t, CreateNote, rc, map[string]any{"content": "Orphan"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidParameters)
	assert.Equal(t, "dealId is required unless one of PersonID OrgID LeadID is set", err.Error())
	assert.Zero(t, srv.RequestCount())
}

func TestGetNote(t *testing.T) {
	srv := newFakeAPI(t)
	srv.Seed("notes", 2, `{"content":"First call","person_id":12,"active_flag":true}`)
	rc := newRunContext(srv)

	out, err := runTask[GetNoteOutput](t, GetNote, rc, map[string]any{"noteId": 2})
	require.NoError(t, err)
	assert.Equal(t, "First call", out.Note.Content)
	assert.Equal(t, 12, pipedrive.Deref(out.Note.PersonID))
	assert.True(t, pipedrive.Deref(out.Note.ActiveFlag))

	_, err = runTask[GetNoteOutput](t, GetNote, rc, map[string]any{"noteId": 3})
	var remote *pipedrive.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusNotFound, remote.StatusCode)
}

func TestGetNoteServerError(t *testing.T) {
	srv := newFakeAPI(t)
	for i := 0; i < 3; i++ {
		srv.FailNext(http.StatusBadGateway, "upstream unavailable")
	}
	rc := newRunContext(srv)

	_, err := runTask[GetNoteOutput](t, GetNote, rc, map[string]any{"noteId": 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, pipedrive.ErrRemoteRequestFailed)
	assert.Equal(t, "pipedrive API request failed: 502 - upstream unavailable", err.Error())
	assert.Equal(t, 3, srv.RequestCount())
}

func TestUpdateNote(t *testing.T) {
	srv := newFakeAPI(t)
	srv.Seed("notes", 6, `{"content":"Draft","deal_id":8}`)
	rc := newRunContext(srv)

	out, err := runTask[UpdateNoteOutput](t, UpdateNote, rc, map[string]any{
		"noteId":  6,
		"content": "Final",
	})
	require.NoError(t, err)
	assert.Equal(t, 6, out.NoteID)
	assert.Equal(t, "2025-03-14T09:26:53Z", out.UpdateTime)

	rec, ok := srv.Record("notes", 6)
	require.True(t, ok)
	assert.Equal(t, "Final", gjson.Get(rec, "content").String())
	assert.Equal(t, int64(8), gjson.Get(rec, "deal_id").Int())

	_, err = runTask[UpdateNoteOutput](t, UpdateNote, rc, map[string]any{"noteId": 6})
	assert.ErrorIs(t, err, ErrInvalidParameters)
}
