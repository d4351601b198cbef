package pipedrive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	t.Run("person with unknown fields", func(t *testing.T) {
		body := `{
			"success": true,
			"data": {"id": 12, "name": "Jane", "label_ids": [1, 2], "custom_fields": {"abc123": "gold"}},
			"additional_data": {"next_cursor": "c2"}
		}`
		env, err := DecodeEnvelope[Person]([]byte(body))
		require.NoError(t, err)
		assert.True(t, env.Success)
		assert.Equal(t, 12, Deref(env.Data.ID))
		assert.Equal(t, "gold", env.Data.CustomFields["abc123"])
		assert.True(t, env.Error.IsNil())
		assert.False(t, env.AdditionalData.IsNil())

		var extra struct {
			NextCursor string `json:"next_cursor"`
		}
		require.NoError(t, env.AdditionalData.GetAs(&extra))
		assert.Equal(t, "c2", extra.NextCursor)
	})

	t.Run("failure without an error message", func(t *testing.T) {
		env, err := DecodeEnvelope[Deal]([]byte(`{"success":false,"data":null,"error":null,"error_info":null}`))
		require.NoError(t, err)
		assert.False(t, env.Success)
		assert.Empty(t, env.Message())
		assert.EqualError(t, env.Err(), "request was not successful")
		assert.ErrorIs(t, env.Err(), ErrApplication)
	})

	t.Run("failure with error and info", func(t *testing.T) {
		env, err := DecodeEnvelope[Deal]([]byte(`{"success":false,"error":"Deal not found","error_info":"Please check the id"}`))
		require.NoError(t, err)
		assert.Equal(t, "Deal not found: Please check the id", env.Message())
		assert.EqualError(t, env.Err(), "Deal not found: Please check the id")
	})

	t.Run("scalar and list payloads", func(t *testing.T) {
		count, err := DecodeEnvelope[int]([]byte(`{"success":true,"data":42}`))
		require.NoError(t, err)
		assert.Equal(t, 42, count.Data)

		notes, err := DecodeEnvelope[[]Note]([]byte(`{"success":true,"data":[{"id":1,"content":"a"},{"id":2,"content":"b"}]}`))
		require.NoError(t, err)
		require.Len(t, notes.Data, 2)
		assert.Equal(t, "b", notes.Data[1].Content)
		assert.Nil(t, notes.Err())
	})

	t.Run("malformed", func(t *testing.T) {
		for _, body := range []string{"", "   ", "not json", `{"success":`, `{"success":true,"data":"text"}`} {
			_, err := DecodeEnvelope[Person]([]byte(body))
			assert.ErrorIs(t, err, ErrDecodeFailed, body)
		}
	})
}

func TestModelEncoding(t *testing.T) {
	t.Run("unset fields are omitted", func(t *testing.T) {
		b, err := json.Marshal(Note{Content: "Call back", DealID: Ptr(3), PinnedToDealFlag: Ptr(false)})
		require.NoError(t, err)
		assert.JSONEq(t, `{"content":"Call back","deal_id":3,"pinned_to_deal_flag":false}`, string(b))
	})

	t.Run("deal survives a round trip", func(t *testing.T) {
		in := Deal{
			ID:          Ptr(9),
			Title:       "Renewal",
			Value:       "2500.75",
			Currency:    "USD",
			PersonID:    Ptr(12),
			Probability: Ptr(0.6),
			Status:      "open",
			MRR:         "99.99",
		}
		b, err := json.Marshal(in)
		require.NoError(t, err)

		env, err := DecodeEnvelope[Deal]([]byte(`{"success":true,"data":` + string(b) + `}`))
		require.NoError(t, err)
		assert.Equal(t, in, env.Data)
	})

	t.Run("person survives a round trip", func(t *testing.T) {
		in := Person{
			ID:        Ptr(1),
			Name:      "Ann Lee",
			FirstName: "Ann",
			LastName:  "Lee",
			Phones:    []ContactInfo{{Value: "+1234567890", Primary: Ptr(true), Label: "mobile"}},
			VisibleTo: Ptr(3),
		}
		b, err := json.Marshal(in)
		require.NoError(t, err)
		var out Person
		require.NoError(t, json.Unmarshal(b, &out))
		assert.Equal(t, in, out)
	})
}
