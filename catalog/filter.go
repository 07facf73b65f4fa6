package catalog

import (
	"strings"

	"github.com/cognition-bio/cognition/models"
)

// FilterOptions selects and narrows the combined table.
type FilterOptions struct {
	// Types limits the source tables ("reference", "other"); empty
	// means both.
	Types []string
	// Taxa are matched case-insensitively as substrings of Organism; a
	// row matching any taxon is kept.
	Taxa []string
	// RemoveRedundancy keeps only the first match per taxon, or
	// deduplicates by organism when no taxa are given.
	RemoveRedundancy bool
}

// Filter applies opts against the cached tables and returns the
// matching rows in table order.
func (s *Service) Filter(opts FilterOptions) []models.Proteome {
	base := s.combined(opts.Types)

	taxa := normalizeTaxa(opts.Taxa)
	if len(taxa) == 0 {
		if opts.RemoveRedundancy {
			return dedupeByOrganism(base)
		}
		return base
	}

	seen := make(map[string]bool)
	var out []models.Proteome
	for _, taxon := range taxa {
		matched := 0
		for _, row := range base {
			if !strings.Contains(strings.ToLower(row.Organism), taxon) {
				continue
			}
			if opts.RemoveRedundancy && matched >= 1 {
				break
			}
			if !seen[row.ID] {
				seen[row.ID] = true
				out = append(out, row)
			}
			matched++
		}
	}
	return out
}

func (s *Service) combined(types []string) []models.Proteome {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wantRef, wantOther := len(types) == 0, len(types) == 0
	for _, t := range types {
		switch t {
		case TypeReference:
			wantRef = true
		case TypeOther:
			wantOther = true
		}
	}

	var out []models.Proteome
	if wantRef {
		out = append(out, s.ref...)
	}
	if wantOther {
		out = append(out, s.other...)
	}
	return out
}

func normalizeTaxa(taxa []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range taxa {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func dedupeByOrganism(rows []models.Proteome) []models.Proteome {
	seen := make(map[string]bool)
	var out []models.Proteome
	for _, row := range rows {
		key := strings.ToLower(row.Organism)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return out
}

// Page slices rows for the given one-based page. An out-of-range page
// returns an empty slice; size defaults to 10.
func Page(rows []models.Proteome, page, size int) []models.Proteome {
	if size <= 0 {
		size = 10
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(rows) {
		return []models.Proteome{}
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// TotalPages reports the page count for the pager, at least 1.
func TotalPages(total, size int) int {
	if size <= 0 {
		size = 10
	}
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	return pages
}

// Summary backs the filtered-count, protein-coverage and type-split
// widgets.
type Summary struct {
	Filtered        int   `json:"filtered"`
	ProteinCoverage int64 `json:"protein_coverage"`
	Reference       int   `json:"reference"`
	Other           int   `json:"other"`
}

func Summarize(rows []models.Proteome) Summary {
	var s Summary
	s.Filtered = len(rows)
	for _, row := range rows {
		s.ProteinCoverage += row.ProteinCount
		switch row.Type {
		case TypeReference:
			s.Reference++
		case TypeOther:
			s.Other++
		}
	}
	return s
}
