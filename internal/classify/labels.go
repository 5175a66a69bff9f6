package classify

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed labels.yaml
var defaultLabels []byte

var (
	defaultOnce    sync.Once
	defaultLabeler *Labeler
)

// Labeler maps file extensions to descriptive labels. A Labeler is read-only
// after construction and safe for concurrent use.
type Labeler struct {
	table map[string]string
}

// NewLabeler creates a Labeler over a copy of table.
func NewLabeler(table map[string]string) *Labeler {
	l := &Labeler{table: make(map[string]string, len(table))}
	for ext, label := range table {
		l.table[ext] = label
	}
	return l
}

// DefaultLabeler returns the labeler built from the embedded table.
func DefaultLabeler() *Labeler {
	defaultOnce.Do(func() {
		table := map[string]string{}
		if err := yaml.Unmarshal(defaultLabels, &table); err != nil {
			panic(fmt.Sprintf("classify: embedded labels.yaml: %v", err))
		}
		defaultLabeler = &Labeler{table: table}
	})
	return defaultLabeler
}

// Label returns the label for ext, or ext itself when it is not in the table.
// Lookups are case-sensitive; table keys are lowercase.
func (l *Labeler) Label(ext string) string {
	if label, ok := l.table[ext]; ok {
		return label
	}
	return ext
}

// Len returns the number of known extensions.
func (l *Labeler) Len() int {
	return len(l.table)
}

// With returns a copy of l with extra merged over its table.
func (l *Labeler) With(extra map[string]string) *Labeler {
	merged := NewLabeler(l.table)
	for ext, label := range extra {
		merged.table[ext] = label
	}
	return merged
}

// ReadLabels parses a YAML mapping of extension to label.
func ReadLabels(r io.Reader) (map[string]string, error) {
	table := map[string]string{}
	if err := yaml.NewDecoder(r).Decode(&table); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse labels: %w", err)
	}
	return table, nil
}

// LoadLabelFile reads a YAML label table from path.
func LoadLabelFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLabels(f)
}
