// Package domain holds the core entities and ports of the recommendation engine.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrDataUnavailable   = errors.New("data unavailable")
	ErrIndexEmpty        = errors.New("index empty")
	ErrOracleUnavailable = errors.New("oracle unavailable")
	ErrInternal          = errors.New("internal error")
)

// Category codes used by the catalog. Multi-letter codes are composite packages.
const (
	CategoryKnowledge       = "K"
	CategoryKnowledgeSkills = "KS"
	CategoryPersonality     = "P"
	CategoryBehavioral      = "BP"
	CategoryAbility         = "A"
	CategorySkills          = "S"
	CategoryCompetency      = "C"
	CategoryOPQ             = "OPQ"
)

// categoryDescriptions maps a category code to a human-readable description
// that doubles as the record description for catalog-shaped datasets.
var categoryDescriptions = map[string]string{
	"K":      "Knowledge Test - Technical Skills",
	"KS":     "Knowledge & Skills Test - Practical Application",
	"P":      "Personality Assessment - Behavioral Traits",
	"BP":     "Behavioral & Personality - Job-Focused",
	"A":      "Ability Test - Cognitive Skills",
	"S":      "Skills Assessment - Job-Specific",
	"C":      "Competency Assessment - Leadership & Management",
	"CPAB":   "Comprehensive Assessment - Multiple Dimensions",
	"ABPS":   "Ability, Behavioral, Personality & Skills Package",
	"PSK":    "Personality, Skills & Knowledge Assessment",
	"ABP":    "Ability, Behavioral & Personality Assessment",
	"AKP":    "Ability, Knowledge & Personality Assessment",
	"ABKP":   "Comprehensive Multi-Domain Assessment",
	"BPSA":   "Behavioral, Personality, Skills & Ability Assessment",
	"BAP":    "Behavioral, Ability & Personality Assessment",
	"PSKBA":  "Complete Professional Assessment Battery",
	"AEBCDP": "Advanced Executive & Business Capability Assessment",
}

// CategoryDescription returns the human-readable description for a category code.
func CategoryDescription(code string) string {
	if d, ok := categoryDescriptions[code]; ok {
		return d
	}
	if code == "" {
		return "Assessment Type: Unknown"
	}
	return "Assessment Type: " + code
}

// IsBehavioralCategory reports whether the code denotes a personality/behavioral test.
func IsBehavioralCategory(code string) bool {
	return code == CategoryPersonality || code == CategoryBehavioral || code == CategoryOPQ
}

// IsSkillsCategory reports whether the code denotes a knowledge/skills test.
func IsSkillsCategory(code string) bool {
	return code == CategoryKnowledge || code == CategoryKnowledgeSkills || code == CategorySkills
}

// CatalogRecord is one assessment product, normalized from either dataset shape.
// Invariants: URL is unique across the catalog; Category is drawn from the fixed
// vocabulary above; Document() is deterministic so re-indexing is idempotent.
type CatalogRecord struct {
	ID              string
	Name            string
	URL             string
	Category        string // primary category code
	Domain          string // derived topical label, e.g. "Programming & Development"
	Description     string
	RemoteCapable   string // "Yes"/"No"/"Not specified"
	AdaptiveCapable string
	DurationMinutes int // legacy dataset only; 0 when unknown
	IsTechnical     bool
	IsBehavioral    bool
	IsSkills        bool
}

// Document renders the embeddable text for the record. The output depends only
// on the record's fields, never on randomness or time.
func (r CatalogRecord) Document() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assessment: %s\n", r.Name)
	if r.Domain != "" {
		fmt.Fprintf(&b, "Domain: %s\n", r.Domain)
	}
	fmt.Fprintf(&b, "Type: %s\n", CategoryDescription(r.Category))
	fmt.Fprintf(&b, "Test Code: %s\n", r.Category)
	if r.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", r.Description)
	}
	if r.DurationMinutes > 0 {
		fmt.Fprintf(&b, "Duration: %d minutes\n", r.DurationMinutes)
	}
	fmt.Fprintf(&b, "Remote Testing: %s\n", orNotSpecified(r.RemoteCapable))
	fmt.Fprintf(&b, "Adaptive/IRT: %s\n", orNotSpecified(r.AdaptiveCapable))
	fmt.Fprintf(&b, "This is a %s focusing on %s skills and capabilities.",
		strings.ToLower(CategoryDescription(r.Category)), strings.ToLower(orDefault(r.Domain, "general")))
	return b.String()
}

func orNotSpecified(s string) string { return orDefault(s, "Not specified") }

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// Candidate is a retrieval-time view of a CatalogRecord with its similarity to
// the current query. Similarity is normalized to [0,1], higher is more relevant.
type Candidate struct {
	CatalogRecord
	Similarity float64
}

// Recommendation is one final output item.
type Recommendation struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Category       string  `json:"category"`
	RelevanceScore float64 `json:"relevance_score"`
	URL            string  `json:"url"`
}

// RecommendationSet is the final result of a recommend call. Degraded is set
// when the candidate pool itself was too small to reach the nominal floor of
// five items; the list is never padded with duplicates.
type RecommendationSet struct {
	Items    []Recommendation `json:"recommended_assessments"`
	Degraded bool             `json:"degraded"`
}

// Ports

// Oracle is the black-box generative re-ranking service: prompt in, text out.
// Implementations must bound the call with a timeout; the caller performs no
// retries and treats any error as a signal to fall back.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder turns texts into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// SearchHit is a single nearest-neighbor result. Distance ascends with
// dissimilarity; callers derive similarity as 1-distance.
type SearchHit struct {
	Payload  map[string]any
	Distance float64
}

// VectorIndex is the persistent approximate-nearest-neighbor index.
type VectorIndex interface {
	EnsureCollection(ctx context.Context, name string, vectorSize int, distance string) error
	DeleteCollection(ctx context.Context, name string) error
	Count(ctx context.Context, name string) (int, error)
	UpsertPoints(ctx context.Context, collection string, vectors [][]float32, payloads []map[string]any, ids []any) error
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]SearchHit, error)
}

// ResultCache stores finished recommendation sets keyed by query. A nil return
// with nil error means miss.
type ResultCache interface {
	Get(ctx context.Context, query string) (*RecommendationSet, error)
	Set(ctx context.Context, query string, set RecommendationSet) error
}
