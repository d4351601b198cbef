package pipedrive

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func TestCreatePerson(t *testing.T) {
	srv := newFakeAPI(t)
	srv.SetClock(func() time.Time { return fixedNow })
	srv.Seed("persons", 54, `{"name":"Someone Else"}`)
	client := newTestClient(t, srv.BaseURL())

	person := Person{
		Name:   "John Doe",
		Emails: []ContactInfo{{Value: "john@example.com", Primary: Ptr(true), Label: "work"}},
	}
	env, err := Post[Person](context.Background(), client, "/persons", person)
	require.NoError(t, err)
	require.True(t, env.Success)
	assert.Equal(t, 55, Deref(env.Data.ID))
	assert.Equal(t, "2024-01-15T10:30:00Z", env.Data.AddTime)
	assert.Equal(t, "2024-01-15T10:30:00Z", env.Data.UpdateTime)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/v2/persons", req.Path)
	assert.Equal(t, "api_token="+testToken, req.Query)
	assert.Equal(t, "application/json; charset=utf-8", req.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"name":"John Doe","emails":[{"value":"john@example.com","primary":true,"label":"work"}]}`, req.Body)
}

func TestGetPerson(t *testing.T) {
	srv := newFakeAPI(t)
	srv.Seed("persons", 12, `{"name":"Jane Smith","org_id":7,"emails":[{"value":"jane@example.com","primary":true,"label":"home"}]}`)
	client := newTestClient(t, srv.BaseURL())

	env, err := Get[Person](context.Background(), client, "/persons/12")
	require.NoError(t, err)
	assert.True(t, env.Success)
	assert.Equal(t, 12, Deref(env.Data.ID))
	assert.Equal(t, "Jane Smith", env.Data.Name)
	assert.Equal(t, 7, Deref(env.Data.OrgID))
	require.Len(t, env.Data.Emails, 1)
	assert.Equal(t, "home", env.Data.Emails[0].Label)

	req := srv.Requests()[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Empty(t, req.Body)
	assert.Empty(t, req.Header.Get("Content-Type"))
}

func TestUpdateAndDelete(t *testing.T) {
	srv := newFakeAPI(t)
	srv.Seed("deals", 8, `{"title":"Old title","currency":"EUR"}`)
	client := newTestClient(t, srv.BaseURL())
	ctx := context.Background()

	env, err := Put[Deal](ctx, client, "/deals/8", Deal{Title: "New title", Value: "1500.50"})
	require.NoError(t, err)
	assert.Equal(t, "New title", env.Data.Title)
	assert.Equal(t, "EUR", env.Data.Currency)
	assert.Equal(t, Decimal("1500.50"), env.Data.Value)
	assert.JSONEq(t, `{"title":"New title","value":1500.50}`, srv.Requests()[0].Body)

	del, err := Delete[map[string]int](ctx, client, "/deals/8")
	require.NoError(t, err)
	assert.Equal(t, 8, del.Data["id"])
	_, ok := srv.Record("deals", 8)
	assert.False(t, ok)
}

func TestUnsuccessfulEnvelope(t *testing.T) {
	srv := newFakeAPI(t)
	srv.FailNext(http.StatusOK, `{"success":false,"data":null,"error":null}`)
	client := newTestClient(t, srv.BaseURL())

	env, err := Get[Person](context.Background(), client, "/persons/1")
	require.NoError(t, err)
	assert.False(t, env.Success)
	assert.True(t, env.Error.IsNil())
	assert.ErrorIs(t, env.Err(), ErrApplication)
}

func TestRemoteErrorBody(t *testing.T) {
	srv := newFakeAPI(t)
	client := newTestClient(t, srv.BaseURL())

	_, err := Post[Note](context.Background(), client, "/notes", Note{DealID: Ptr(1)})
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusBadRequest, remote.StatusCode)
	assert.Equal(t, "Bad request: content is required", remote.Message())
	assert.Contains(t, err.Error(), "400")
}

func TestMalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":`))
	}))
	defer ts.Close()
	client := newTestClient(t, ts.URL)

	_, err := Get[Person](context.Background(), client, "/persons/1")
	assert.ErrorIs(t, err, ErrDecodeFailed)
}

func TestTokenSentVerbatim(t *testing.T) {
	var rawQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"success":true,"data":{}}`))
	}))
	defer ts.Close()

	client, err := NewClient("abc/def", WithBaseURL(ts.URL))
	require.NoError(t, err)
	defer client.Close()

	_, err = Get[map[string]any](context.Background(), client, "/persons?limit=1")
	require.NoError(t, err)
	assert.Equal(t, "limit=1&api_token=abc/def", rawQuery)
}

func TestReadTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true,`))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	client := newTestClient(t, ts.URL, WithReadTimeout(100*time.Millisecond))
	_, err := Get[Person](context.Background(), client, "/persons/1")
	assert.ErrorIs(t, err, ErrTransport)
}
