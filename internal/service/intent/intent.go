// Package intent classifies free-text hiring queries into the coarse signals
// the deterministic selector balances on.
package intent

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon holds the keyword lists driving classification. The lists are
// substring-matched against the lowercased query.
type Lexicon struct {
	Technical  []string `yaml:"technical"`
	Behavioral []string `yaml:"behavioral"`
}

// DefaultLexicon returns the built-in keyword lists.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Technical:  []string{"java", "python", "programming", "software", "technical", "code", "development"},
		Behavioral: []string{"leadership", "management", "communication", "personality", "behavior"},
	}
}

// LoadLexicon reads a lexicon from a YAML file. Empty lists fall back to the
// built-in defaults so a partial file cannot silently disable a signal.
func LoadLexicon(path string) (Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return Lexicon{}, fmt.Errorf("parse lexicon %s: %w", path, err)
	}
	def := DefaultLexicon()
	if len(lex.Technical) == 0 {
		lex.Technical = def.Technical
	}
	if len(lex.Behavioral) == 0 {
		lex.Behavioral = def.Behavioral
	}
	return lex, nil
}

// Signals are the classification result for one query.
type Signals struct {
	WantsTechnical  bool
	WantsBehavioral bool
}

// Classifier matches queries against a lexicon.
type Classifier struct {
	lex Lexicon
}

// NewClassifier builds a classifier over the given lexicon.
func NewClassifier(lex Lexicon) *Classifier {
	return &Classifier{lex: lex}
}

// Classify reports which assessment kinds the query asks for. Both signals
// can be true, and both can be false.
func (c *Classifier) Classify(query string) Signals {
	lower := strings.ToLower(query)
	return Signals{
		WantsTechnical:  containsAny(lower, c.lex.Technical),
		WantsBehavioral: containsAny(lower, c.lex.Behavioral),
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
