package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Estimator reports how many tokens a piece of text costs.
type Estimator interface {
	Count(text string) (int, error)
}

// TiktokenEstimator implements Estimator using tiktoken-go
type TiktokenEstimator struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenEstimator creates a tiktoken-backed estimator for an encoding
// name such as "cl100k_base".
func NewTiktokenEstimator(encodingName string) (*TiktokenEstimator, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding %s: %w", encodingName, err)
	}

	return &TiktokenEstimator{
		encoding: encoding,
	}, nil
}

// Count returns the number of tokens in text
func (e *TiktokenEstimator) Count(text string) (int, error) {
	return len(e.encoding.Encode(text, nil, nil)), nil
}

// HeuristicEstimator implements Estimator with character-based counting,
// roughly four characters per token. Used as a fallback when the tiktoken
// vocabulary is unavailable (it downloads on first use).
type HeuristicEstimator struct{}

// NewHeuristicEstimator creates a new heuristic estimator
func NewHeuristicEstimator() *HeuristicEstimator {
	return &HeuristicEstimator{}
}

// Count returns the estimated number of tokens in text
func (e *HeuristicEstimator) Count(text string) (int, error) {
	count := len(text) / 4
	if count < 1 && len(text) > 0 {
		count = 1
	}
	return count, nil
}

// NewEstimator returns a tiktoken estimator for the encoding, falling back
// to the heuristic one when the encoding cannot be loaded.
func NewEstimator(encodingName string) Estimator {
	if est, err := NewTiktokenEstimator(encodingName); err == nil {
		return est
	}
	return NewHeuristicEstimator()
}

// CountBatch sums token counts across a batch of inputs. Inputs the
// estimator cannot count fall back to the heuristic.
func CountBatch(est Estimator, batch []string) int {
	fallback := NewHeuristicEstimator()

	var total int
	for _, text := range batch {
		count, err := est.Count(text)
		if err != nil {
			count, _ = fallback.Count(text)
		}
		total += count
	}
	return total
}
