package embeddings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse_Data(t *testing.T) {
	outcome := ParseResponse([]byte(`{"data":[{"index":0,"embedding":[0.1,0.2]}]}`))

	require.Equal(t, OutcomeEmbeddings, outcome.Kind)
	require.Len(t, outcome.Embeddings, 1)
	assert.Equal(t, 0, outcome.Embeddings[0].Index)
	assert.Equal(t, []float32{0.1, 0.2}, outcome.Embeddings[0].Vector)
}

func TestParseResponse_ServerError(t *testing.T) {
	outcome := ParseResponse([]byte(`{"error":{"message":"boom","type":"server error"}}`))

	require.Equal(t, OutcomeAPIError, outcome.Kind)
	assert.Equal(t, "boom", outcome.APIErr.Message)
	assert.Equal(t, KindServerError, outcome.APIErr.Kind())
}

func TestParseResponse_TokenLimit(t *testing.T) {
	outcome := ParseResponse([]byte(`{"error":{"message":"x","type":"invalid_request_error"}}`))

	require.Equal(t, OutcomeAPIError, outcome.Kind)
	assert.Equal(t, KindTokenLimit, outcome.APIErr.Kind())
}

func TestParseResponse_UnknownErrorType(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unrecognized type", `{"error":{"message":"x","type":"quota_exceeded"}}`},
		{"case matters", `{"error":{"message":"x","type":"Server Error"}}`},
		{"underscore variant is not the wire literal", `{"error":{"message":"x","type":"server_error"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := ParseResponse([]byte(tt.body))
			require.Equal(t, OutcomeAPIError, outcome.Kind)
			assert.Equal(t, KindUnknown, outcome.APIErr.Kind())
		})
	}
}

func TestParseResponse_InvalidJSON(t *testing.T) {
	outcome := ParseResponse([]byte(`not json`))

	require.Equal(t, OutcomeMalformed, outcome.Kind)
	assert.Equal(t, "not json", outcome.Malformed.Raw)
	assert.Error(t, outcome.Malformed.Err)
}

func TestParseResponse_SchemaMismatch(t *testing.T) {
	outcome := ParseResponse([]byte(`{"foo":1}`))

	require.Equal(t, OutcomeMalformed, outcome.Kind)
	// Distinct from the invalid-JSON case: the body parsed, it just fits
	// neither schema.
	assert.NoError(t, outcome.Malformed.Err)
	assert.Contains(t, outcome.Malformed.Error(), "neither error nor data schema")
}

func TestParseResponse_ErrorCheckedBeforeData(t *testing.T) {
	body := `{"error":{"message":"boom","type":"server error"},"data":[{"index":0,"embedding":[1]}]}`
	outcome := ParseResponse([]byte(body))

	require.Equal(t, OutcomeAPIError, outcome.Kind)
}

func TestParseResponse_MalformedErrorFieldFallsThrough(t *testing.T) {
	// The error field is present but not the error shape; the data field
	// still counts.
	body := `{"error":"oops","data":[{"index":0,"embedding":[0.5]}]}`
	outcome := ParseResponse([]byte(body))

	require.Equal(t, OutcomeEmbeddings, outcome.Kind)
	require.Len(t, outcome.Embeddings, 1)
}

func TestParseResponse_NullFieldsFallThrough(t *testing.T) {
	outcome := ParseResponse([]byte(`{"error":null,"data":[{"index":0,"embedding":[0.5]}]}`))
	require.Equal(t, OutcomeEmbeddings, outcome.Kind)

	outcome = ParseResponse([]byte(`{"error":null,"data":null}`))
	require.Equal(t, OutcomeMalformed, outcome.Kind)
}

func TestParseResponse_ErrorShapeRequiresBothFields(t *testing.T) {
	outcome := ParseResponse([]byte(`{"error":{"message":"boom"}}`))
	require.Equal(t, OutcomeMalformed, outcome.Kind)

	outcome = ParseResponse([]byte(`{"error":{"type":"server error"}}`))
	require.Equal(t, OutcomeMalformed, outcome.Kind)
}

func TestParseResponse_EmptyData(t *testing.T) {
	outcome := ParseResponse([]byte(`{"data":[]}`))

	require.Equal(t, OutcomeEmbeddings, outcome.Kind)
	assert.Empty(t, outcome.Embeddings)
}
