// Package catalog loads the assessment catalog from CSV files and exposes
// in-memory lookup over the normalized records.
//
// Two dataset shapes are supported: the full product catalog
// (name,url,test_type,remote_testing,adaptive_irt,page_number) and a legacy
// scrape (name,url,description,duration,adaptive_support,remote_support,
// test_type with pipe-delimited codes). The preferred catalog wins when both
// exist; the legacy file is a fallback only.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/PrRahil/shl-assessment-recommender/internal/domain"
)

// Store holds the loaded catalog and lookup indexes.
type Store struct {
	records  []domain.CatalogRecord
	byURL    map[string]int
	bySuffix map[string]int
	legacy   bool
}

// Load reads the preferred catalog at catalogPath, falling back to the legacy
// dataset at legacyPath when the preferred file is absent. Both missing yields
// domain.ErrDataUnavailable.
func Load(catalogPath, legacyPath string) (*Store, error) {
	if f, err := os.Open(catalogPath); err == nil {
		defer func() { _ = f.Close() }()
		st, perr := parseCatalog(f)
		if perr != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", catalogPath, perr)
		}
		slog.Info("catalog loaded", slog.String("path", catalogPath), slog.Int("records", st.Len()))
		return st, nil
	}
	if legacyPath != "" {
		if f, err := os.Open(legacyPath); err == nil {
			defer func() { _ = f.Close() }()
			st, perr := parseLegacy(f)
			if perr != nil {
				return nil, fmt.Errorf("parse legacy catalog %s: %w", legacyPath, perr)
			}
			slog.Warn("preferred catalog missing, using legacy dataset",
				slog.String("path", legacyPath), slog.Int("records", st.Len()))
			return st, nil
		}
	}
	return nil, fmt.Errorf("no catalog file at %q or %q: %w", catalogPath, legacyPath, domain.ErrDataUnavailable)
}

// parseCatalog reads the full product catalog shape. Column order is taken
// from the header row, so reordered exports still load.
func parseCatalog(r io.Reader) (*Store, error) {
	rows, cols, err := readAll(r)
	if err != nil {
		return nil, err
	}
	for _, required := range []string{"name", "url", "test_type"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	st := newStore(false)
	for i, row := range rows {
		name := strings.TrimSpace(field(row, cols, "name"))
		category := strings.TrimSpace(field(row, cols, "test_type"))
		// Scrape artifact: section headers leak into the data as rows whose
		// test_type column repeats the literal header text.
		if name == "" || category == "Test Type" {
			continue
		}
		rec := domain.CatalogRecord{
			ID:              fmt.Sprintf("shl_test_%d", i),
			Name:            name,
			URL:             strings.TrimSpace(field(row, cols, "url")),
			Category:        category,
			Domain:          deriveDomain(name),
			Description:     domain.CategoryDescription(category),
			RemoteCapable:   strings.TrimSpace(field(row, cols, "remote_testing")),
			AdaptiveCapable: strings.TrimSpace(field(row, cols, "adaptive_irt")),
		}
		rec.IsTechnical = isTechnicalName(name)
		rec.IsBehavioral = domain.IsBehavioralCategory(category)
		rec.IsSkills = domain.IsSkillsCategory(category)
		st.add(rec)
	}
	return st, nil
}

// parseLegacy reads the older scrape shape, where test_type carries one or
// more pipe-delimited codes. The first code becomes the primary category.
func parseLegacy(r io.Reader) (*Store, error) {
	rows, cols, err := readAll(r)
	if err != nil {
		return nil, err
	}
	for _, required := range []string{"name", "url"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	st := newStore(true)
	for i, row := range rows {
		name := strings.TrimSpace(field(row, cols, "name"))
		if name == "" {
			continue
		}
		codes := splitCodes(field(row, cols, "test_type"))
		primary := ""
		if len(codes) > 0 {
			primary = codes[0]
		}
		duration, _ := strconv.Atoi(strings.TrimSpace(field(row, cols, "duration")))
		rec := domain.CatalogRecord{
			ID:              fmt.Sprintf("legacy_assessment_%d", i),
			Name:            name,
			URL:             strings.TrimSpace(field(row, cols, "url")),
			Category:        primary,
			Domain:          deriveDomain(name),
			Description:     strings.TrimSpace(field(row, cols, "description")),
			RemoteCapable:   strings.TrimSpace(field(row, cols, "remote_support")),
			AdaptiveCapable: strings.TrimSpace(field(row, cols, "adaptive_support")),
			DurationMinutes: duration,
		}
		if rec.Description == "" {
			rec.Description = domain.CategoryDescription(primary)
		}
		rec.IsTechnical = isTechnicalName(name)
		for _, c := range codes {
			if domain.IsBehavioralCategory(c) {
				rec.IsBehavioral = true
			}
			if domain.IsSkillsCategory(c) {
				rec.IsSkills = true
			}
		}
		st.add(rec)
	}
	return st, nil
}

func newStore(legacy bool) *Store {
	return &Store{
		byURL:    make(map[string]int),
		bySuffix: make(map[string]int),
		legacy:   legacy,
	}
}

func (s *Store) add(rec domain.CatalogRecord) {
	idx := len(s.records)
	s.records = append(s.records, rec)
	if rec.URL != "" {
		if _, dup := s.byURL[rec.URL]; !dup {
			s.byURL[rec.URL] = idx
		}
		if suffix := urlSuffix(rec.URL); suffix != "" {
			if _, dup := s.bySuffix[suffix]; !dup {
				s.bySuffix[suffix] = idx
			}
		}
	}
}

// Records returns the catalog in load order. Callers must not mutate it.
func (s *Store) Records() []domain.CatalogRecord { return s.records }

// Len reports the number of loaded records.
func (s *Store) Len() int { return len(s.records) }

// Legacy reports whether the fallback dataset was loaded.
func (s *Store) Legacy() bool { return s.legacy }

// FindByURL looks up a record by its product URL. Exact match first, then a
// match on the final path segment so that records survive host or scheme
// differences between the index payload and the catalog file.
func (s *Store) FindByURL(url string) (domain.CatalogRecord, bool) {
	url = strings.TrimSpace(url)
	if url == "" {
		return domain.CatalogRecord{}, false
	}
	if i, ok := s.byURL[url]; ok {
		return s.records[i], true
	}
	if suffix := urlSuffix(url); suffix != "" {
		if i, ok := s.bySuffix[suffix]; ok {
			return s.records[i], true
		}
	}
	return domain.CatalogRecord{}, false
}

func urlSuffix(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

func splitCodes(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, "|") {
		if c := strings.TrimSpace(p); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// readAll consumes the CSV, returning data rows and a header-name index.
// Header names are lowercased so exports with mixed casing still map.
func readAll(r io.Reader) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, cols, nil
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

var technicalNameKeywords = []string{
	"programming", "java", "python", "sql", "javascript", "development",
	"engineering", "software", "coding", "technical", "data", "cloud",
}

func isTechnicalName(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range technicalNameKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// domainBuckets orders topical labels by keyword match priority. First hit
// wins, so more specific buckets come before broad ones.
var domainBuckets = []struct {
	label    string
	keywords []string
}{
	{"Programming & Development", []string{"java", "python", "javascript", "sql", "programming", "coding"}},
	{"Engineering", []string{"engineering", "mechanical", "electrical", "chemical"}},
	{"Data & Analytics", []string{"data", "analytics", "statistics", "science"}},
	{"Microsoft Office & Productivity", []string{"microsoft", "excel", "word", "powerpoint", "office"}},
	{"Cloud & Infrastructure", []string{"cloud", "aws", "azure", "devops"}},
	{"Sales & Customer Service", []string{"sales", "customer", "service", "marketing"}},
	{"Leadership & Management", []string{"management", "leadership", "manager", "executive"}},
	{"Personality & Behavior", []string{"personality", "behavioral", "motivation", "opq"}},
	{"Cognitive Abilities", []string{"numerical", "verbal", "reasoning", "ability", "cognitive"}},
	{"Healthcare & Medical", []string{"medical", "healthcare", "nursing", "pharmaceutical"}},
	{"Finance & Accounting", []string{"finance", "accounting", "banking", "financial"}},
}

func deriveDomain(name string) string {
	lower := strings.ToLower(name)
	for _, bucket := range domainBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				return bucket.label
			}
		}
	}
	return "General Assessment"
}
