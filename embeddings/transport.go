package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/driftline/embedkit/pkg/metrics"
	"github.com/driftline/embedkit/pkg/tokens"
)

// Transport sends one batch of inputs to the embedding endpoint and returns
// the raw response body. It never interprets the body; that is the
// classifier's job.
type Transport interface {
	Send(ctx context.Context, batch []string) ([]byte, error)
}

// HTTPTransport implements Transport over the OpenAI-style HTTP API.
type HTTPTransport struct {
	session   *Session
	client    *http.Client
	baseURL   string
	model     string
	metrics   *metrics.EmbeddingMetrics
	estimator tokens.Estimator
}

// NewHTTPTransport creates a transport authenticating with the given
// session.
func NewHTTPTransport(session *Session, config *Config) *HTTPTransport {
	if config == nil {
		config = DefaultConfig()
	}

	return &HTTPTransport{
		session: session,
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: config.BaseURL,
		model:   config.Model,
	}
}

// SetMetrics attaches a metric set recorded on every send.
func (t *HTTPTransport) SetMetrics(m *metrics.EmbeddingMetrics) {
	t.metrics = m
}

// SetEstimator attaches a token estimator used for the input-token metric.
func (t *HTTPTransport) SetEstimator(est tokens.Estimator) {
	t.estimator = est
}

// SetHTTPClient overrides the underlying HTTP client.
func (t *HTTPTransport) SetHTTPClient(client *http.Client) {
	t.client = client
}

// Send issues one embedding request for the batch and returns the raw
// response body. The body is returned for any HTTP status: the API reports
// domain errors as JSON bodies on non-2xx responses, and classifying those
// is not the transport's job. A TransportError is returned only when the
// exchange itself fails.
func (t *HTTPTransport) Send(ctx context.Context, batch []string) ([]byte, error) {
	payload, err := json.Marshal(openai.EmbeddingRequest{
		Input: batch,
		Model: openai.EmbeddingModel(t.model),
	})
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.session.APIKey())

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		t.recordRequest("transport_error", start, batch)
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.recordRequest("read_error", start, batch)
		return nil, &TransportError{Err: fmt.Errorf("read response body: %w", err)}
	}

	t.recordRequest(strconv.Itoa(resp.StatusCode), start, batch)
	return body, nil
}

func (t *HTTPTransport) recordRequest(status string, start time.Time, batch []string) {
	if t.metrics == nil {
		return
	}
	t.metrics.RecordRequest(t.model, status)
	t.metrics.RecordLatency(t.model, time.Since(start))
	if t.estimator != nil {
		t.metrics.RecordInputTokens(t.model, tokens.CountBatch(t.estimator, batch))
	}
}
