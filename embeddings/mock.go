package embeddings

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
)

// ScriptedResponse is one canned transport exchange.
type ScriptedResponse struct {
	Body []byte
	Err  error
}

// ScriptedTransport replays a fixed sequence of responses and counts how
// many sends it served. Once the script runs out, the last response
// repeats, which makes persistent-failure scenarios easy to express.
type ScriptedTransport struct {
	mu      sync.Mutex
	script  []ScriptedResponse
	sends   int
	Batches [][]string
}

// NewScriptedTransport creates a transport replaying the given responses.
func NewScriptedTransport(script ...ScriptedResponse) *ScriptedTransport {
	return &ScriptedTransport{script: script}
}

// Send returns the next scripted response and records the batch it saw.
func (t *ScriptedTransport) Send(_ context.Context, batch []string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.script) == 0 {
		return nil, &TransportError{Err: fmt.Errorf("scripted transport has no responses")}
	}

	idx := t.sends
	if idx >= len(t.script) {
		idx = len(t.script) - 1
	}
	t.sends++
	t.Batches = append(t.Batches, append([]string(nil), batch...))

	resp := t.script[idx]
	return resp.Body, resp.Err
}

// Sends returns how many times Send was called.
func (t *ScriptedTransport) Sends() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sends
}

// ErrorBody builds a response body carrying an API error.
func ErrorBody(message, errType string) []byte {
	body, _ := json.Marshal(map[string]any{
		"error": map[string]string{"message": message, "type": errType},
	})
	return body
}

// DataBody builds a successful response body with one embedding per input,
// indexed 0..n-1.
func DataBody(vectors ...[]float32) []byte {
	data := make([]IndexedEmbedding, len(vectors))
	for i, v := range vectors {
		data[i] = IndexedEmbedding{Index: i, Vector: v}
	}
	body, _ := json.Marshal(map[string]any{"data": data})
	return body
}

// SyntheticTransport synthesizes deterministic embeddings offline, with no
// network at all. Vectors are derived from an FNV hash of the input, so the
// same text always maps to the same unit vector. Useful for dry runs and
// for exercising the full pipeline in tests.
type SyntheticTransport struct {
	dimension int
}

// NewSyntheticTransport creates an offline transport producing vectors of
// the given dimension.
func NewSyntheticTransport(dimension int) *SyntheticTransport {
	if dimension <= 0 {
		dimension = 16
	}
	return &SyntheticTransport{dimension: dimension}
}

// Send synthesizes a well-formed success body for the batch.
func (t *SyntheticTransport) Send(_ context.Context, batch []string) ([]byte, error) {
	data := make([]IndexedEmbedding, len(batch))
	for i, text := range batch {
		data[i] = IndexedEmbedding{Index: i, Vector: t.vectorFor(text)}
	}
	body, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	return body, nil
}

func (t *SyntheticTransport) vectorFor(text string) []float32 {
	vector := make([]float32, t.dimension)

	h := fnv.New64a()
	var norm float64
	for i := range vector {
		h.Write([]byte(text))
		h.Write([]byte{byte(i)})
		// Map the hash onto [-1, 1).
		v := float64(int64(h.Sum64())) / math.MaxInt64
		vector[i] = float32(v)
		norm += v * v
	}

	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
	}
	return vector
}
