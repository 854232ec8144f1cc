package usecase

import (
	"log/slog"

	"github.com/PrRahil/shl-assessment-recommender/internal/domain"
	"github.com/PrRahil/shl-assessment-recommender/internal/service/intent"
)

const (
	fallbackWindow     = 15
	fallbackBalanceCap = 4
)

// Fallback selects recommendations deterministically when the oracle is
// unavailable. It walks the most similar candidates and balances technical
// against behavioral picks according to what the query asks for.
type Fallback struct {
	classifier *intent.Classifier
}

// NewFallback wires the deterministic selector over the intent classifier.
func NewFallback(classifier *intent.Classifier) *Fallback {
	if classifier == nil {
		classifier = intent.NewClassifier(intent.DefaultLexicon())
	}
	return &Fallback{classifier: classifier}
}

// Select walks the first 15 candidates in similarity order and admits them
// by the query's intent:
//   - both technical and behavioral wanted: admit technical picks up to 4 and
//     behavioral picks up to 4, skip the rest;
//   - a single want: admit only matching candidates;
//   - no wants: admit everything in order.
//
// At most 10 admitted; fewer than 5 tops up from the remaining pool in order.
// The result only falls below 5 when the pool itself is smaller.
func (f *Fallback) Select(query string, candidates []domain.Candidate) []domain.Recommendation {
	signals := f.classifier.Classify(query)
	slog.Debug("deterministic selection",
		slog.Bool("wants_technical", signals.WantsTechnical),
		slog.Bool("wants_behavioral", signals.WantsBehavioral),
		slog.Int("pool", len(candidates)))

	window := candidates
	if len(window) > fallbackWindow {
		window = window[:fallbackWindow]
	}

	var selected []domain.Candidate
	picked := make(map[int]struct{}, maxRecommendations)
	techCount, behavCount := 0, 0

	for i, c := range window {
		switch {
		case signals.WantsTechnical && signals.WantsBehavioral:
			if (c.IsTechnical && techCount < fallbackBalanceCap) || (c.IsBehavioral && behavCount < fallbackBalanceCap) {
				selected = append(selected, c)
				picked[i] = struct{}{}
				if c.IsTechnical {
					techCount++
				}
				if c.IsBehavioral {
					behavCount++
				}
			}
		case signals.WantsTechnical:
			if c.IsTechnical {
				selected = append(selected, c)
				picked[i] = struct{}{}
			}
		case signals.WantsBehavioral:
			if c.IsBehavioral {
				selected = append(selected, c)
				picked[i] = struct{}{}
			}
		default:
			selected = append(selected, c)
			picked[i] = struct{}{}
		}
		if len(selected) >= maxRecommendations {
			break
		}
	}

	// Top up from the rest of the pool, skipping what the walk already took.
	for i := 0; i < len(candidates) && len(selected) < minRecommendations; i++ {
		if _, ok := picked[i]; ok {
			continue
		}
		selected = append(selected, candidates[i])
		picked[i] = struct{}{}
	}

	recs := make([]domain.Recommendation, 0, len(selected))
	for _, c := range selected {
		recs = append(recs, toRecommendation(c))
	}
	return recs
}
