package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/PrRahil/shl-assessment-recommender/internal/adapter/ai/tokencount"
	"github.com/PrRahil/shl-assessment-recommender/internal/adapter/observability"
	"github.com/PrRahil/shl-assessment-recommender/internal/domain"
)

const (
	minRecommendations = 5
	maxRecommendations = 10
)

// Selector asks the generative oracle to pick a balanced subset of the
// candidate pool. One call per query, no retries; any failure surfaces as an
// error so the caller can fall back deterministically.
type Selector struct {
	oracle        domain.Oracle
	counter       *tokencount.Counter
	maxDescTokens int
}

// NewSelector wires a selector over the oracle. maxDescTokens bounds each
// candidate description in the prompt; <= 0 disables truncation.
func NewSelector(oracle domain.Oracle, counter *tokencount.Counter, maxDescTokens int) *Selector {
	if counter == nil {
		counter = tokencount.DefaultCounter
	}
	return &Selector{oracle: oracle, counter: counter, maxDescTokens: maxDescTokens}
}

// promptItem is one candidate as shown to the oracle. Ids are 1-based.
type promptItem struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Domain       string  `json:"domain"`
	TestType     string  `json:"test_type"`
	IsTechnical  bool    `json:"is_technical"`
	IsBehavioral bool    `json:"is_behavioral"`
	IsSkills     bool    `json:"is_skills"`
	Remote       string  `json:"remote_testing"`
	Adaptive     string  `json:"adaptive_irt"`
	Similarity   float64 `json:"similarity_score"`
}

// Select returns 5 to 10 recommendations chosen by the oracle, fewer only
// when the pool itself is smaller than 5.
func (s *Selector) Select(ctx context.Context, query string, candidates []domain.Candidate) ([]domain.Recommendation, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("empty candidate pool: %w", domain.ErrInvalidArgument)
	}

	raw, err := s.oracle.Generate(ctx, s.buildPrompt(query, candidates))
	if err != nil {
		observability.OracleFailuresTotal.WithLabelValues("call").Inc()
		return nil, fmt.Errorf("oracle call: %w", err)
	}

	ids, err := parseSelection(raw)
	if err != nil {
		observability.OracleFailuresTotal.WithLabelValues("parse").Inc()
		return nil, fmt.Errorf("oracle response: %w", err)
	}

	ids = sanitizeIDs(ids, len(candidates))
	if len(ids) == 0 {
		observability.OracleFailuresTotal.WithLabelValues("empty").Inc()
		return nil, fmt.Errorf("oracle selected nothing usable: %w", domain.ErrOracleUnavailable)
	}
	ids = repairSelection(ids, len(candidates))

	recs := make([]domain.Recommendation, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, toRecommendation(candidates[id-1]))
	}
	return recs, nil
}

func (s *Selector) buildPrompt(query string, candidates []domain.Candidate) string {
	items := make([]promptItem, len(candidates))
	for i, c := range candidates {
		items[i] = promptItem{
			ID:           i + 1,
			Name:         c.Name,
			Description:  s.counter.Truncate(c.Description, s.maxDescTokens),
			Domain:       c.Domain,
			TestType:     c.Category,
			IsTechnical:  c.IsTechnical,
			IsBehavioral: c.IsBehavioral,
			IsSkills:     c.IsSkills,
			Remote:       c.RemoteCapable,
			Adaptive:     c.AdaptiveCapable,
			Similarity:   math.Round(c.Similarity*1000) / 1000,
		}
	}
	catalog, _ := json.MarshalIndent(items, "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, "You are an assessment selection expert analyzing a catalog of pre-hire tests. The hiring query is: %q.\n\n", query)
	b.WriteString(`SELECTION REQUIREMENTS:
1. Select between 5 and 10 assessments, never fewer, never more.
2. BALANCE RULE for mixed queries (technical plus soft skills): combine
   knowledge tests (test_type K, KS) for technical skills with behavioral
   tests (test_type P, BP, OPQ) for personality and leadership, plus skills
   tests (test_type S) for job-specific competencies.
3. Rank by similarity_score and domain relevance.
4. Respect remote_testing and adaptive_irt capabilities when the query asks
   for them.

TEST TYPE GUIDE:
- K: Knowledge Tests (technical skills, programming, software)
- KS: Knowledge & Skills (practical application)
- P: Personality Assessment (behavioral traits, motivation)
- BP: Behavioral & Personality (job-focused behavior)
- S: Skills Assessment (job-specific skills)
- C: Competency Assessment (leadership, management)
- Multi-letter codes: comprehensive packages

AVAILABLE ASSESSMENTS:
`)
	b.Write(catalog)
	b.WriteString(`

RESPONSE FORMAT:
Return ONLY a JSON array of assessment ids, 5 to 10 items.
Example for 7 picks: [1, 3, 5, 7, 9, 11, 13]
Example for 5 picks: [2, 4, 6, 8, 10]`)
	return b.String()
}

// parseSelection extracts the id array from the oracle's free-form response:
// everything from the first '[' to the last ']' must decode as a JSON array
// of integers.
func parseSelection(raw string) ([]int, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in response")
	}
	var ids []int
	if err := json.Unmarshal([]byte(raw[start:end+1]), &ids); err != nil {
		return nil, fmt.Errorf("decode id array: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("empty id array")
	}
	return ids, nil
}

// sanitizeIDs drops out-of-range and duplicate ids, preserving order.
func sanitizeIDs(ids []int, pool int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id < 1 || id > pool {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// repairSelection enforces the 5..10 size window. Short selections are topped
// up with unselected candidates in pool order; long ones are cut to the first
// ten. A pool smaller than 5 yields the whole pool.
func repairSelection(ids []int, pool int) []int {
	if len(ids) > maxRecommendations {
		return ids[:maxRecommendations]
	}
	if len(ids) >= minRecommendations {
		return ids
	}
	selected := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		selected[id] = struct{}{}
	}
	for id := 1; id <= pool && len(ids) < minRecommendations; id++ {
		if _, ok := selected[id]; ok {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func toRecommendation(c domain.Candidate) domain.Recommendation {
	desc := c.Description
	if c.Domain != "" {
		desc = c.Domain + " - " + desc
	}
	return domain.Recommendation{
		Name:           c.Name,
		Description:    desc,
		Category:       c.Category,
		RelevanceScore: clamp01(c.Similarity),
		URL:            c.URL,
	}
}
