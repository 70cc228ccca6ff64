package embeddings

import (
	"bytes"
	"encoding/json"
)

// responseEnvelope captures the two top-level fields a response may carry.
// Both are kept raw so the shape checks below stay independent.
type responseEnvelope struct {
	Error json.RawMessage `json:"error"`
	Data  json.RawMessage `json:"data"`
}

// wireError is the strict error shape: both fields must be present as
// strings for the error branch to be taken.
type wireError struct {
	Message *string `json:"message"`
	Type    *string `json:"type"`
}

var jsonNull = []byte("null")

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, jsonNull)
}

// ParseResponse interprets a raw response body. The checks run in a fixed
// order: JSON validity, then the error shape, then the data shape. The
// error shape is checked first because a body could conceivably carry both
// fields; the API's error report wins.
func ParseResponse(raw []byte) ParseOutcome {
	var env responseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ParseOutcome{
			Kind: OutcomeMalformed,
			Malformed: &MalformedError{
				Reason: "body is not valid JSON",
				Raw:    string(raw),
				Err:    err,
			},
		}
	}

	if present(env.Error) {
		var we wireError
		if err := json.Unmarshal(env.Error, &we); err == nil && we.Message != nil && we.Type != nil {
			return ParseOutcome{
				Kind:   OutcomeAPIError,
				APIErr: &APIError{Message: *we.Message, Type: *we.Type},
			}
		}
	}

	if present(env.Data) {
		var data []IndexedEmbedding
		if err := json.Unmarshal(env.Data, &data); err == nil {
			return ParseOutcome{Kind: OutcomeEmbeddings, Embeddings: data}
		}
	}

	return ParseOutcome{
		Kind: OutcomeMalformed,
		Malformed: &MalformedError{
			Reason: "response matches neither error nor data schema",
			Raw:    string(raw),
		},
	}
}
