package limiter

import (
	"context"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/embedkit/embeddings"
)

func TestBreakerTransport_PassesThroughSuccess(t *testing.T) {
	next := embeddings.NewScriptedTransport(embeddings.ScriptedResponse{
		Body: embeddings.DataBody([]float32{0.1}),
	})
	transport := NewBreakerTransport(next, nil, nil)

	body, err := transport.Send(context.Background(), []string{"a"})

	require.NoError(t, err)
	assert.Equal(t, embeddings.OutcomeEmbeddings, embeddings.ParseResponse(body).Kind)
}

func TestBreakerTransport_APIErrorBodyDoesNotTrip(t *testing.T) {
	// An API error body is a completed exchange; only transport failures
	// count against the breaker.
	next := embeddings.NewScriptedTransport(embeddings.ScriptedResponse{
		Body: embeddings.ErrorBody("boom", "server error"),
	})
	transport := NewBreakerTransport(next, nil, nil)

	for i := 0; i < 10; i++ {
		_, err := transport.Send(context.Background(), []string{"a"})
		require.NoError(t, err)
	}
	assert.Equal(t, gobreaker.StateClosed, transport.State())
}

func TestBreakerTransport_OpensAfterTransportFailures(t *testing.T) {
	next := embeddings.NewScriptedTransport(embeddings.ScriptedResponse{
		Err: &embeddings.TransportError{Err: assert.AnError},
	})
	transport := NewBreakerTransport(next, nil, nil)

	for i := 0; i < 6; i++ {
		_, err := transport.Send(context.Background(), []string{"a"})
		require.Error(t, err)
	}

	assert.Equal(t, gobreaker.StateOpen, transport.State())

	// Once open, calls fail fast as transport errors without reaching the
	// wrapped transport.
	before := next.Sends()
	_, err := transport.Send(context.Background(), []string{"a"})
	require.Error(t, err)

	var te *embeddings.TransportError
	assert.ErrorAs(t, err, &te)
	assert.Equal(t, before, next.Sends())
}
