// Package articles parses article CSV exports and upserts them by title.
package articles

import (
	"encoding/csv" // CSV reading and writing
	"errors"       // Error values
	"fmt"          // Formatting
	"io"           // Readers
	"strings"      // String manipulation
	"time"         // Timestamps

	"srq_assessment/internal/domain" // Domain models

	"golang.org/x/text/cases" // Unicode case mapping
)

var (
	ErrMissingColumn = errors.New("csv header is missing a required column")
	ErrEmptyFile     = errors.New("csv file is empty")
)

// DateLayouts are tried in order for the date column.
var DateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"January 2, 2006",
	"2 January 2006",
	time.RFC3339,
}

// Skip records a row that was not imported.
type Skip struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

var fold = cases.Fold()

// columns maps a logical field onto its header index.
type columns struct {
	title, author, body, date, category int
}

func headerIndex(header []string) (columns, error) {
	cols := columns{-1, -1, -1, -1, -1}
	for i, h := range header {
		switch fold.String(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "title":
			cols.title = i
		case "author":
			cols.author = i
		case "article", "articles":
			cols.body = i
		case "date":
			cols.date = i
		case "category":
			cols.category = i
		}
	}
	switch {
	case cols.title < 0:
		return cols, fmt.Errorf("%w: title", ErrMissingColumn)
	case cols.body < 0:
		return cols, fmt.Errorf("%w: article", ErrMissingColumn)
	case cols.category < 0:
		return cols, fmt.Errorf("%w: category", ErrMissingColumn)
	}
	return cols, nil
}

// ParseCSV reads articles from r. Invalid rows are returned as skips rather
// than errors; an error means the file itself could not be read.
func ParseCSV(r io.Reader, today time.Time) ([]domain.Article, []Skip, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, ErrEmptyFile
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := headerIndex(header)
	if err != nil {
		return nil, nil, err
	}

	var (
		out   []domain.Article
		skips []Skip
	)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		a, reason := parseRecord(record, cols, today)
		if reason != "" {
			skips = append(skips, Skip{Line: line, Reason: reason})
			continue
		}
		out = append(out, a)
	}
	return out, skips, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseRecord(record []string, cols columns, today time.Time) (domain.Article, string) {
	a := domain.Article{
		Title:   field(record, cols.title),
		Author:  field(record, cols.author),
		Article: field(record, cols.body),
	}
	if a.Title == "" {
		return a, "missing title"
	}
	if a.Article == "" {
		return a, "missing article body"
	}
	a.Category = NormalizeCategory(field(record, cols.category))
	if !domain.IsValidCategory(a.Category) {
		return a, fmt.Sprintf("invalid category %q", field(record, cols.category))
	}
	date, err := ParseDate(field(record, cols.date), today)
	if err != nil {
		return a, err.Error()
	}
	a.Date = date
	return a, ""
}

// NormalizeCategory folds case and turns inner spaces and underscores into dashes.
func NormalizeCategory(c string) string {
	c = fold.String(strings.TrimSpace(c))
	c = strings.NewReplacer("_", "-", " ", "-").Replace(c)
	return c
}

// ParseDate accepts DateLayouts; an empty value means today.
func ParseDate(v string, today time.Time) (time.Time, error) {
	if v == "" {
		y, m, d := today.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", v)
}
