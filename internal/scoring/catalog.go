// Package scoring maps SRQ-20 answers onto the prediction service and
// provides the local threshold heuristic used when that service is down.
package scoring

import (
	_ "embed" // Embedded question list
	"fmt"     // Formatting
	"strings" // String manipulation

	"srq_assessment/internal/domain" // Domain models

	"github.com/pelletier/go-toml/v2" // TOML parsing
)

//go:embed questions.toml
var questionsTOML []byte

// Question is one SRQ-20 item.
type Question struct {
	Column string `toml:"column"`
	Field  string `toml:"field"`
	Text   string `toml:"text"`
}

// Catalog is the ordered SRQ-20 question list.
type Catalog struct {
	Questions []Question `toml:"question"`
}

// LoadCatalog parses the embedded question list.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(questionsTOML)
}

// ParseCatalog decodes a TOML question list and checks it has exactly
// domain.QuestionCount uniquely named entries.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode question catalog: %w", err)
	}
	if len(c.Questions) != domain.QuestionCount {
		return nil, fmt.Errorf("question catalog has %d entries, want %d", len(c.Questions), domain.QuestionCount)
	}
	seen := make(map[string]struct{}, len(c.Questions))
	for i, q := range c.Questions {
		if q.Field == "" || q.Text == "" {
			return nil, fmt.Errorf("question %d is missing field or text", i+1)
		}
		if _, dup := seen[q.Field]; dup {
			return nil, fmt.Errorf("duplicate question field %q", q.Field)
		}
		seen[q.Field] = struct{}{}
	}
	return &c, nil
}

// MustLoadCatalog is LoadCatalog for package initialization paths.
func MustLoadCatalog() *Catalog {
	c, err := LoadCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// Texts returns the question texts in order.
func (c *Catalog) Texts() []string {
	out := make([]string, len(c.Questions))
	for i, q := range c.Questions {
		out[i] = q.Text
	}
	return out
}

// Columns returns the assessment_results column names in order.
func (c *Catalog) Columns() []string {
	out := make([]string, len(c.Questions))
	for i, q := range c.Questions {
		out[i] = strings.ToLower(q.Column)
	}
	return out
}

// Payload maps answers positionally onto the prediction service field names.
// Age and gender are included when known.
func (c *Catalog) Payload(answers []int, age int, gender string) map[string]any {
	p := make(map[string]any, len(c.Questions)+2)
	for i, q := range c.Questions {
		p[q.Field] = answers[i]
	}
	if age > 0 {
		p["age"] = age
	}
	if gender != "" {
		p["gender"] = gender
	}
	return p
}
