package intent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	c := NewClassifier(DefaultLexicon())

	tests := []struct {
		name  string
		query string
		want  Signals
	}{
		{"technical only", "looking for a java developer with strong coding skills", Signals{WantsTechnical: true}},
		{"behavioral only", "assess leadership and communication for a team lead", Signals{WantsBehavioral: true}},
		{"both", "python engineer who can grow into management", Signals{WantsTechnical: true, WantsBehavioral: true}},
		{"neither", "entry level warehouse operative", Signals{}},
		{"case insensitive", "SENIOR JAVA PROGRAMMING role", Signals{WantsTechnical: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, c.Classify(tt.query))
		})
	}
}

func TestLoadLexicon(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("technical:\n  - golang\n  - kubernetes\n"), 0o600))

	lex, err := LoadLexicon(path)
	require.NoError(t, err)
	assert.Contains(t, lex.Technical, "golang")
	assert.Equal(t, DefaultLexicon().Behavioral, lex.Behavioral, "missing list falls back to defaults")

	c := NewClassifier(lex)
	assert.True(t, c.Classify("kubernetes platform engineer").WantsTechnical)
}

func TestLoadLexiconMissingFile(t *testing.T) {
	t.Parallel()
	_, err := LoadLexicon(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
