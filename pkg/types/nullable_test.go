package types

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullableString(t *testing.T) {
	type payload struct {
		Error     NullableString `json:"error"`
		ErrorInfo NullableString `json:"error_info"`
	}

	tests := []struct {
		name      string
		input     string
		wantError NullableString
		wantInfo  NullableString
	}{
		{
			name:      "both set",
			input:     `{"error":"not found","error_info":"check the id"}`,
			wantError: NullableStringFrom("not found"),
			wantInfo:  NullableStringFrom("check the id"),
		},
		{
			name:      "explicit null",
			input:     `{"error":null,"error_info":null}`,
			wantError: NullString(),
			wantInfo:  NullString(),
		},
		{
			name:      "absent",
			input:     `{}`,
			wantError: NullString(),
			wantInfo:  NullString(),
		},
		{
			name:      "empty string is not nil",
			input:     `{"error":""}`,
			wantError: NullableStringFrom(""),
			wantInfo:  NullString(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			require.NoError(t, json.Unmarshal([]byte(tt.input), &p))
			assert.Equal(t, tt.wantError, p.Error)
			assert.Equal(t, tt.wantInfo, p.ErrorInfo)
		})
	}

	t.Run("marshal", func(t *testing.T) {
		b, err := json.Marshal(payload{Error: NullableStringFrom("boom")})
		require.NoError(t, err)
		assert.JSONEq(t, `{"error":"boom","error_info":null}`, string(b))
	})

	t.Run("blank", func(t *testing.T) {
		assert.True(t, NullableStringFrom("").IsBlank())
		assert.False(t, NullableStringFrom("").IsNil())
		assert.True(t, NullString().IsBlank())
		assert.Equal(t, "", NullString().String())
	})

	t.Run("wrong type", func(t *testing.T) {
		var ns NullableString
		assert.Error(t, json.Unmarshal([]byte(`42`), &ns))
	})
}

func TestNullableAny(t *testing.T) {
	t.Run("keeps raw json", func(t *testing.T) {
		var na NullableAny
		require.NoError(t, json.Unmarshal([]byte(`{"pagination":{"start":0,"more_items_in_collection":false}}`), &na))
		assert.False(t, na.IsNil())
		assert.JSONEq(t, `{"pagination":{"start":0,"more_items_in_collection":false}}`, string(na.Raw()))

		var decoded struct {
			Pagination struct {
				Start int  `json:"start"`
				More  bool `json:"more_items_in_collection"`
			} `json:"pagination"`
		}
		require.NoError(t, na.GetAs(&decoded))
		assert.False(t, decoded.Pagination.More)
	})

	t.Run("null", func(t *testing.T) {
		var na NullableAny
		require.NoError(t, json.Unmarshal([]byte(`null`), &na))
		assert.True(t, na.IsNil())
		assert.Nil(t, na.Get())
		assert.ErrorIs(t, na.GetAs(&map[string]any{}), ErrNullValue)

		b, err := json.Marshal(na)
		require.NoError(t, err)
		assert.Equal(t, "null", string(b))
	})

	t.Run("set", func(t *testing.T) {
		na, err := NullableAnyFrom(map[string]any{"count": 2})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"count": float64(2)}, na.Get())

		require.NoError(t, na.Set([]byte(`[1,2]`)))
		assert.Equal(t, []any{float64(1), float64(2)}, na.Get())

		require.NoError(t, na.Set(nil))
		assert.True(t, na.IsNil())

		assert.Error(t, na.Set(jsoniter.RawMessage(`{bad`)))
	})
}
