package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/propfind/searchcore/internal/db"
	"github.com/propfind/searchcore/internal/domain/search/predicate"
)

// SearchList performs filtered, paginated search via FT.SEARCH.
func (s *Store) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Limit < 0 {
		return nil, fmt.Errorf("limit must be non-negative")
	}
	if q.Predicate.Impossible() {
		return &db.SearchResult{}, nil
	}

	args := []string{q.IndexName, buildQuery(q.Predicate)}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	if q.SortBy != "" {
		args = append(args, "SORTBY", q.SortBy, "ASC")
	}

	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseListResult(raw)
}

// --- Result parsing ---

func parseListResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Query building ---

// buildQuery translates a predicate into an FT.SEARCH query string. Clauses
// are conjunctive except the any-range group, which is a disjunction.
func buildQuery(p predicate.Predicate) string {
	var parts []string

	for _, tag := range p.Tags() {
		parts = append(parts, buildTagFilter(tag))
	}
	for _, r := range p.Ranges() {
		parts = append(parts, buildNumericFilter(r))
	}
	if group := buildAnyGroup(p.AnyRange()); group != "" {
		parts = append(parts, group)
	}
	if box := p.BoundingBox(); box != nil {
		parts = append(parts, fmt.Sprintf("@%s:[%g %g]", predicate.FieldLatitude, box.MinLat, box.MaxLat))
		// A box that wraps the antimeridian or covers a pole cannot be a
		// single longitude range; the exact distance check prunes the rest.
		if box.MinLon >= -180 && box.MaxLon <= 180 && (box.MinLon > -180 || box.MaxLon < 180) {
			parts = append(parts, fmt.Sprintf("@%s:[%g %g]", predicate.FieldLongitude, box.MinLon, box.MaxLon))
		}
	}
	if clause := buildTextFilter(p.Text()); clause != "" {
		parts = append(parts, clause)
	}

	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

// buildTextFilter emits one infix wildcard per query token so the store matches
// the same records as Predicate.Matches, which tests each token as a substring.
// Wildcards over TEXT fields require DIALECT 2.
func buildTextFilter(q string) string {
	tokens := strings.Fields(q)
	if len(tokens) == 0 {
		return ""
	}
	clauses := make([]string, len(tokens))
	for i, tok := range tokens {
		clauses[i] = "*" + escapeQuery(tok) + "*"
	}
	return fmt.Sprintf("@%s|%s:(%s)",
		predicate.FieldTitle, predicate.FieldDescription, strings.Join(clauses, " "))
}

func buildTagFilter(tag predicate.TagSet) string {
	values := tag.Values()
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = tagEscaper.Replace(v)
	}
	return fmt.Sprintf("@%s:{%s}", tag.Field(), strings.Join(escaped, "|"))
}

func buildNumericFilter(r predicate.NumRange) string {
	minBound := "-inf"
	maxBound := "+inf"

	if r.Min() != nil {
		minBound = fmt.Sprintf("%g", *r.Min())
	}
	if r.Max() != nil {
		maxBound = fmt.Sprintf("%g", *r.Max())
	}

	return fmt.Sprintf("@%s:[%s %s]", r.Field(), minBound, maxBound)
}

func buildAnyGroup(ranges []predicate.NumRange) string {
	if len(ranges) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ranges))
	for _, r := range ranges {
		parts = append(parts, buildNumericFilter(r))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " | ") + ")"
}

// --- Query helpers ---

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)
