package embeddings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/driftline/embedkit/pkg/metrics"
	"github.com/driftline/embedkit/pkg/tracing"
)

// Engine orchestrates the transport and the classifier over batches. It
// offers a fail-fast plain mode and a resilient mode that retries transient
// failures and recursively splits batches the API rejects as too large.
type Engine struct {
	transport Transport
	model     string
	parallel  bool
	trace     bool
	logger    *zap.Logger
	metrics   *metrics.EmbeddingMetrics
	tracer    *tracing.Tracer
}

// NewEngine creates an engine over the given transport. The logger carries
// the per-branch progress notices; when config.Trace is false (or the
// logger is nil) those notices are discarded.
func NewEngine(transport Transport, config *Config, logger *zap.Logger) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	trace := config.Trace && logger != nil
	if !trace {
		logger = zap.NewNop()
	}

	return &Engine{
		transport: transport,
		model:     config.Model,
		parallel:  config.Parallel,
		trace:     trace,
		logger:    logger,
		tracer:    tracing.NewNopTracer(),
	}
}

// SetMetrics attaches a metric set recorded by the resilient engine.
func (e *Engine) SetMetrics(m *metrics.EmbeddingMetrics) {
	e.metrics = m
}

// SetTracer attaches an OpenTelemetry tracer for embed spans.
func (e *Engine) SetTracer(t *tracing.Tracer) {
	e.tracer = t
}

// EmbedBatch sends the batch once and classifies the response. Any
// non-success outcome is surfaced as an error tagged with its kind. Used
// when the caller wants fail-fast semantics.
func (e *Engine) EmbedBatch(ctx context.Context, batch []string) ([]IndexedEmbedding, error) {
	ctx, span := e.tracer.StartSendSpan(ctx, e.model, len(batch))
	defer span.End()

	raw, err := e.transport.Send(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}

	outcome := ParseResponse(raw)
	switch outcome.Kind {
	case OutcomeEmbeddings:
		return outcome.Embeddings, nil
	case OutcomeAPIError:
		return nil, fmt.Errorf("embed batch (%s): %w", outcome.APIErr.Kind(), outcome.APIErr)
	default:
		return nil, fmt.Errorf("embed batch: %w", outcome.Malformed)
	}
}

// EmbedBatchResilient embeds the batch on a best-effort basis. It never
// returns an error: transient server errors are retried until gas runs out,
// oversized batches are recursively halved (splitting does not consume
// gas), and anything unrecoverable is silently dropped. The result covers
// the surviving inputs in batch order; it may be shorter than the batch.
//
// Embeddings come back exactly as the API returned them: indices are
// relative to the sub-batch that produced them and are neither validated
// nor re-sorted.
func (e *Engine) EmbedBatchResilient(ctx context.Context, batch []string, gas int) []IndexedEmbedding {
	logger := e.logger
	if e.trace {
		// The run id ties one top-level call's notices together; skip it
		// when the notices go nowhere.
		logger = logger.With(zap.String("run_id", uuid.NewString()))
	}

	ctx, span := e.tracer.StartEmbedSpan(ctx, e.model, len(batch), gas)
	defer span.End()

	return e.embedResilient(ctx, logger, batch, gas)
}

func (e *Engine) embedResilient(ctx context.Context, logger *zap.Logger, batch []string, gas int) []IndexedEmbedding {
	if gas <= 0 {
		logger.Info("gas exhausted, giving up on branch", zap.Int("batch_size", len(batch)))
		e.recordDropped("gas_exhausted", len(batch))
		return nil
	}
	if len(batch) == 0 {
		logger.Info("empty batch, nothing to embed")
		return nil
	}

	raw, err := e.transport.Send(ctx, batch)
	if err != nil {
		logger.Warn("transport failure, dropping batch", zap.Int("batch_size", len(batch)), zap.Error(err))
		e.recordDropped("transport_failure", len(batch))
		return nil
	}

	outcome := ParseResponse(raw)
	switch outcome.Kind {
	case OutcomeEmbeddings:
		logger.Info("batch embedded", zap.Int("count", len(outcome.Embeddings)))
		return outcome.Embeddings

	case OutcomeAPIError:
		return e.handleAPIError(ctx, logger, batch, gas, outcome.APIErr)

	default:
		logger.Warn("unparseable response, dropping batch",
			zap.Int("batch_size", len(batch)),
			zap.String("reason", outcome.Malformed.Reason))
		e.recordDropped("malformed_response", len(batch))
		return nil
	}
}

func (e *Engine) handleAPIError(ctx context.Context, logger *zap.Logger, batch []string, gas int, apiErr *APIError) []IndexedEmbedding {
	switch apiErr.Kind() {
	case KindServerError:
		// Transient: retry the same batch, burning one unit of gas.
		logger.Info("server error, retrying batch",
			zap.Int("batch_size", len(batch)),
			zap.Int("gas_left", gas-1),
			zap.String("message", apiErr.Message))
		if e.metrics != nil {
			e.metrics.RecordRetry(e.model, "server_error")
		}
		return e.embedResilient(ctx, logger, batch, gas-1)

	case KindTokenLimit:
		if len(batch) == 1 {
			// Cannot shrink further: a single input over the limit is
			// unembeddable under this policy.
			logger.Warn("single input exceeds token limit, dropping it",
				zap.String("message", apiErr.Message))
			e.recordDropped("token_limit", 1)
			return nil
		}
		return e.split(ctx, logger, batch, gas)

	default:
		logger.Warn("unrecoverable api error, dropping batch",
			zap.Int("batch_size", len(batch)),
			zap.String("type", apiErr.Type),
			zap.String("message", apiErr.Message))
		e.recordDropped("unknown_error", len(batch))
		return nil
	}
}

// split halves the batch at the midpoint and embeds each half
// independently. Splitting is productive work, so it does not consume gas;
// each half starts with the caller's full budget. The halves share no
// mutable state and may run in parallel; the only ordering requirement is
// that the first half's results precede the second's.
func (e *Engine) split(ctx context.Context, logger *zap.Logger, batch []string, gas int) []IndexedEmbedding {
	mid := len(batch) / 2
	logger.Info("token limit hit, splitting batch",
		zap.Int("batch_size", len(batch)),
		zap.Int("first_half", mid),
		zap.Int("second_half", len(batch)-mid))
	if e.metrics != nil {
		e.metrics.RecordSplit(e.model)
	}

	var first, second []IndexedEmbedding
	if e.parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			first = e.embedResilient(gctx, logger, batch[:mid], gas)
			return nil
		})
		g.Go(func() error {
			second = e.embedResilient(gctx, logger, batch[mid:], gas)
			return nil
		})
		_ = g.Wait()
	} else {
		first = e.embedResilient(ctx, logger, batch[:mid], gas)
		second = e.embedResilient(ctx, logger, batch[mid:], gas)
	}

	return append(first, second...)
}

func (e *Engine) recordDropped(reason string, count int) {
	if e.metrics != nil {
		e.metrics.RecordDroppedInputs(e.model, reason, count)
	}
}
