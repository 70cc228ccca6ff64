package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/driftline/embedkit/embeddings"
	"github.com/driftline/embedkit/pkg/limiter"
	"github.com/driftline/embedkit/pkg/logging"
	"github.com/driftline/embedkit/pkg/metrics"
	"github.com/driftline/embedkit/pkg/registry"
	"github.com/driftline/embedkit/pkg/tokens"
	"github.com/driftline/embedkit/pkg/tracing"
)

type outputRecord struct {
	Batch     int       `json:"batch"`
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

func main() {
	var (
		model      = flag.String("model", "", "Embedding model identifier")
		baseURL    = flag.String("base-url", "", "API base URL")
		configPath = flag.String("config", "", "Path to endpoint registry YAML")
		endpoint   = flag.String("endpoint", "", "Endpoint profile ID from the registry")
		tag        = flag.String("tag", "", "Pick the first registry profile carrying this tag")
		gas        = flag.Int("gas", -1, "Retry budget per batch (resilient mode)")
		batchSize  = flag.Int("batch-size", 0, "Inputs per request")
		plain      = flag.Bool("plain", false, "Fail fast instead of retrying and splitting")
		parallel   = flag.Bool("parallel", false, "Embed split halves in parallel")
		trace      = flag.Bool("trace", false, "Print per-branch progress notices")
		offline    = flag.Bool("offline", false, "Synthesize embeddings locally, no network")
		dimension  = flag.Int("dimension", 16, "Vector dimension in offline mode")
		breaker    = flag.Bool("breaker", false, "Wrap the transport in a circuit breaker")
		jaegerURL  = flag.String("jaeger", "", "Jaeger collector endpoint for tracing")
		logLevel   = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	logger, err := logging.NewLogger(logging.Config{
		Level:  *logLevel,
		Format: "json",
		Output: "stderr",
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg := embeddings.ConfigFromEnv()
	profile := loadProfile(logger, *configPath, *endpoint, *tag)
	if profile != nil {
		applyProfile(cfg, profile)
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *gas >= 0 {
		cfg.Gas = *gas
	}
	if *batchSize > 0 {
		cfg.BatchSize = *batchSize
	}
	cfg.Parallel = *parallel
	cfg.Trace = *trace

	inputs, err := readInputs(flag.Args())
	if err != nil {
		logger.Fatal("Failed to read inputs", zap.Error(err))
	}
	if len(inputs) == 0 {
		logger.Fatal("No inputs: pass strings as arguments or on stdin")
	}

	m := metrics.NewDefaultEmbeddingMetrics()

	var transport embeddings.Transport
	if *offline {
		transport = embeddings.NewSyntheticTransport(*dimension)
	} else {
		session := openSession(logger, profile)
		httpTransport := embeddings.NewHTTPTransport(session, cfg)
		httpTransport.SetMetrics(m)
		httpTransport.SetEstimator(tokens.NewEstimator(cfg.Encoding))
		transport = httpTransport
	}
	if *breaker {
		transport = limiter.NewBreakerTransport(transport, nil, logger)
	}

	var traceLogger *zap.Logger
	if cfg.Trace {
		traceLogger, err = logging.NewTraceLogger()
		if err != nil {
			logger.Fatal("Failed to create trace logger", zap.Error(err))
		}
	}

	engine := embeddings.NewEngine(transport, cfg, traceLogger)
	engine.SetMetrics(m)

	if *jaegerURL != "" {
		tracer, err := tracing.NewTracer(tracing.Config{
			ServiceName:    "embedctl",
			ServiceVersion: "dev",
			JaegerEndpoint: *jaegerURL,
			Environment:    "cli",
		})
		if err != nil {
			logger.Fatal("Failed to create tracer", zap.Error(err))
		}
		engine.SetTracer(tracer)
	}

	ctx := context.Background()
	enc := json.NewEncoder(os.Stdout)

	embedded := 0
	for batchNum, batch := range chunk(inputs, cfg.BatchSize) {
		var results []embeddings.IndexedEmbedding
		if *plain {
			results, err = engine.EmbedBatch(ctx, batch)
			if err != nil {
				logger.Fatal("Batch failed", zap.Int("batch", batchNum), zap.Error(err))
			}
		} else {
			results = engine.EmbedBatchResilient(ctx, batch, cfg.Gas)
		}

		for _, r := range results {
			record := outputRecord{Batch: batchNum, Index: r.Index, Embedding: r.Vector}
			if err := enc.Encode(record); err != nil {
				logger.Fatal("Failed to write output", zap.Error(err))
			}
		}
		embedded += len(results)
	}

	logger.Info("Done",
		zap.Int("inputs", len(inputs)),
		zap.Int("embedded", embedded),
		zap.Int("dropped", len(inputs)-embedded))
}

// loadProfile resolves an endpoint profile from the registry, if asked
// for, either by ID or by picking the first profile carrying a tag.
func loadProfile(logger *zap.Logger, configPath, endpointID, tag string) *registry.EndpointConfig {
	if endpointID == "" && tag == "" {
		return nil
	}

	reg, err := registry.NewLoader(configPath).LoadRegistry()
	if err != nil {
		logger.Fatal("Failed to load registry", zap.Error(err))
	}

	if endpointID != "" {
		profile := reg.GetEndpointByID(endpointID)
		if profile == nil {
			logger.Fatal("Endpoint profile not found", zap.String("endpoint", endpointID))
		}
		return profile
	}

	tagged := reg.GetEndpointsByTag(tag)
	if len(tagged) == 0 {
		logger.Fatal("No endpoint profile carries tag", zap.String("tag", tag))
	}
	return &tagged[0]
}

func applyProfile(cfg *embeddings.Config, profile *registry.EndpointConfig) {
	if profile.Model != "" {
		cfg.Model = profile.Model
	}
	if profile.BaseURL != "" {
		cfg.BaseURL = profile.BaseURL
	}
	if profile.Encoding != "" {
		cfg.Encoding = profile.Encoding
	}
	if profile.Gas > 0 {
		cfg.Gas = profile.Gas
	}
	if profile.BatchSize > 0 {
		cfg.BatchSize = profile.BatchSize
	}
}

// openSession builds the session credential. A missing key is terminal for
// the whole run.
func openSession(logger *zap.Logger, profile *registry.EndpointConfig) *embeddings.Session {
	if profile != nil && profile.APIKeyEnv != "" {
		key := os.Getenv(profile.APIKeyEnv)
		if key == "" {
			logger.Fatal("API key environment variable is not set", zap.String("env", profile.APIKeyEnv))
		}
		session, err := embeddings.NewSession(key)
		if err != nil {
			logger.Fatal("Failed to create session", zap.Error(err))
		}
		return session
	}

	session, err := embeddings.NewSessionFromEnv()
	if err != nil {
		logger.Fatal("Failed to create session", zap.Error(err))
	}
	return session
}

// readInputs takes inputs from arguments, or from stdin lines when no
// arguments are given.
func readInputs(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	var inputs []string
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			inputs = append(inputs, line)
		}
	}
	return inputs, scanner.Err()
}

func chunk(inputs []string, size int) [][]string {
	if size <= 0 {
		return [][]string{inputs}
	}

	var batches [][]string
	for start := 0; start < len(inputs); start += size {
		end := start + size
		if end > len(inputs) {
			end = len(inputs)
		}
		batches = append(batches, inputs[start:end])
	}
	return batches
}
