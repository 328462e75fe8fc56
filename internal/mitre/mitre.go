package mitre

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"secdash/pkg/models"
)

// idPattern matches ATT&CK identifiers embedded in rule text: TAxxxx for
// tactics, and T/G/S/Mxxxx for techniques, groups, software and mitigations.
var idPattern = regexp.MustCompile(`(?i)\b(?:TA\d{4}|[TGSM]\d{4})\b`)

// ExtractIDs pulls ATT&CK identifiers out of free text, normalized to
// uppercase. The result is deduplicated and sorted for determinism.
func ExtractIDs(text string) []string {
	matches := idPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		set[strings.ToUpper(m)] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// KindOf derives the entry family from an identifier prefix.
func KindOf(id string) models.MitreKind {
	switch {
	case strings.HasPrefix(id, "TA"):
		return models.MitreTactic
	case strings.HasPrefix(id, "T"):
		return models.MitreTechnique
	case strings.HasPrefix(id, "M"):
		return models.MitreMitigation
	case strings.HasPrefix(id, "S"):
		return models.MitreSoftware
	default:
		return models.MitreGroup
	}
}

// Table is the static ATT&CK reference data, loaded once and read-only.
type Table struct {
	entries map[string]models.MitreEntry
}

// LoadTable reads a reference table from a YAML file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mitre table: %w", err)
	}
	var entries []models.MitreEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse mitre table: %w", err)
	}
	return NewTable(entries), nil
}

// NewTable builds a table from entries. Entries without an ID are skipped;
// a missing kind is derived from the ID prefix.
func NewTable(entries []models.MitreEntry) *Table {
	t := &Table{entries: make(map[string]models.MitreEntry, len(entries))}
	for _, e := range entries {
		e.ID = strings.ToUpper(strings.TrimSpace(e.ID))
		if e.ID == "" {
			continue
		}
		if e.Kind == "" {
			e.Kind = KindOf(e.ID)
		}
		t.entries[e.ID] = e
	}
	return t
}

// Len returns the number of reference entries.
func (t *Table) Len() int { return len(t.entries) }

// Join filters extracted IDs through the reference table. IDs with no match
// are dropped silently; the output is sorted by ID.
func (t *Table) Join(ids []string) []models.MitreEntry {
	out := make([]models.MitreEntry, 0, len(ids))
	for _, id := range ids {
		if e, ok := t.entries[strings.ToUpper(id)]; ok {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CrossReference extracts IDs from the top rule buckets and joins them
// against the table. Extraction runs over the already-ranked descriptions,
// not the full record set, which bounds cost.
func (t *Table) CrossReference(topRules []models.AggregateBucket) []models.MitreEntry {
	seen := make(map[string]struct{})
	var ids []string
	for _, bucket := range topRules {
		for _, id := range ExtractIDs(bucket.Key) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return t.Join(ids)
}
