package db

import (
	"strings"
	"unicode"

	"fossilbed/strata/internal/fossil"
	"fossilbed/strata/internal/text"
)

// SearchTerms preprocesses a natural language query into LIKE terms.
// Splits on whitespace, trims punctuation, lowercases, and drops stopwords,
// words shorter than 3 chars and repeats.
func SearchTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, w := range strings.Fields(query) {
		// Trim non-letter/digit chars from both ends
		trimmed := strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
		})
		trimmed = strings.ToLower(trimmed)
		if len([]rune(trimmed)) < 3 || text.IsStopword(trimmed) || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		terms = append(terms, trimmed)
	}
	return terms
}

// SearchFossils returns visible fossils whose invariant or probe intent
// contains any search term, most matching terms first, newer first on ties.
// Returns an empty slice when the query has no usable terms.
func (d *DB) SearchFossils(query string) ([]fossil.Record, error) {
	terms := SearchTerms(query)
	if len(terms) == 0 {
		return []fossil.Record{}, nil
	}

	var score, where []string
	var args []any
	for _, t := range terms {
		pattern := "%" + escapeLike(t) + "%"
		score = append(score, `(lower(invariant || ' ' || probe_intent) LIKE ? ESCAPE '\')`)
		args = append(args, pattern)
	}
	for _, t := range terms {
		pattern := "%" + escapeLike(t) + "%"
		where = append(where, `lower(invariant || ' ' || probe_intent) LIKE ? ESCAPE '\'`)
		args = append(args, pattern)
	}

	rows, err := d.conn.Query(`
		SELECT `+fossilColumns+` FROM (
			SELECT *, (`+strings.Join(score, " + ")+`) AS hits FROM fossils
			WHERE deleted = 0 AND superseded_by IS NULL AND (`+strings.Join(where, " OR ")+`)
		)
		ORDER BY hits DESC, created_at DESC, id
	`, args...)
	if err != nil {
		return nil, err
	}
	return scanFossils(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
