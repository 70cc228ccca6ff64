package embeddings

import "fmt"

// IndexedEmbedding pairs a vector with the position of the input that
// produced it within the batch that was sent. The index is batch-relative:
// callers that split batches must rely on concatenation order.
type IndexedEmbedding struct {
	Index  int       `json:"index"`
	Vector []float32 `json:"embedding"`
}

// ErrorKind classifies an API-reported error for retry purposes.
type ErrorKind int

const (
	// KindUnknown marks errors the client has no recovery policy for.
	KindUnknown ErrorKind = iota
	// KindServerError marks transient failures that are safe to retry unchanged.
	KindServerError
	// KindTokenLimit marks requests rejected for exceeding input size or
	// cost limits; the batch must be shrunk, not merely retried.
	KindTokenLimit
)

// String returns a human-readable name for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindServerError:
		return "server_error"
	case KindTokenLimit:
		return "token_limit"
	default:
		return "unknown"
	}
}

// Wire values of the API error "type" field. These literals are the
// contract with the remote API and are matched verbatim, case-sensitively.
const (
	errTypeServerError    = "server error"
	errTypeInvalidRequest = "invalid_request_error"
)

// APIError is a structured error reported by the remote API inside an
// otherwise well-formed response body.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%s): %s", e.Type, e.Message)
}

// Kind maps the wire error type onto the client's retry taxonomy.
func (e *APIError) Kind() ErrorKind {
	switch e.Type {
	case errTypeServerError:
		return KindServerError
	case errTypeInvalidRequest:
		return KindTokenLimit
	default:
		return KindUnknown
	}
}

// MalformedError reports a response body that could not be interpreted:
// either it was not valid JSON, or it matched neither the error nor the
// data schema. Raw carries the offending body for diagnostics.
type MalformedError struct {
	Reason string
	Raw    string
	Err    error
}

// Error implements the error interface.
func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed response: %s", e.Reason)
}

// Unwrap returns the underlying parse error, if any.
func (e *MalformedError) Unwrap() error {
	return e.Err
}

// TransportError reports a failure to complete the request/response
// exchange itself. The response body, if any, never reached the classifier.
type TransportError struct {
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

// Unwrap returns the underlying transport failure.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// OutcomeKind tags the variant held by a ParseOutcome.
type OutcomeKind int

const (
	// OutcomeMalformed means the body was not interpretable at all.
	OutcomeMalformed OutcomeKind = iota
	// OutcomeAPIError means the body parsed and the API reported an error.
	OutcomeAPIError
	// OutcomeEmbeddings means the body parsed and carries embeddings.
	OutcomeEmbeddings
)

// ParseOutcome is the classifier result: exactly one of a malformed-response
// failure, an API-reported error, or a sequence of embeddings. Kind tells
// which field is populated, so callers can switch exhaustively.
type ParseOutcome struct {
	Kind       OutcomeKind
	Embeddings []IndexedEmbedding
	APIErr     *APIError
	Malformed  *MalformedError
}
