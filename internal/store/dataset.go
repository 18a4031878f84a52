package store

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDataset is returned when a dataset breaks the identifier or name
// invariants of a collection.
var ErrInvalidDataset = errors.New("invalid dataset")

// Dataset is the initial content of a store.
type Dataset struct {
	Authors []Author `json:"authors" yaml:"authors"`
	Books   []Book   `json:"books" yaml:"books"`
}

//go:embed default_dataset.yaml
var defaultDataset []byte

// DefaultDataset returns the dataset compiled into the binary.
func DefaultDataset() Dataset {
	ds, err := ParseDataset(defaultDataset)
	if err != nil {
		panic(fmt.Sprintf("store: embedded dataset: %v", err))
	}
	return ds
}

// LoadDataset reads a YAML or JSON dataset file.
func LoadDataset(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset: %w", err)
	}
	ds, err := ParseDataset(data)
	if err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// ParseDataset decodes and validates a YAML or JSON document.
func ParseDataset(data []byte) (Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return Dataset{}, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	if err := ds.Validate(); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// Validate checks that ids are positive and unique per collection and that
// every name is non-empty. Book author references are not checked.
func (ds Dataset) Validate() error {
	seen := map[int]struct{}{}
	for i, a := range ds.Authors {
		if a.ID <= 0 {
			return fmt.Errorf("%w: authors[%d]: id must be positive", ErrInvalidDataset, i)
		}
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("%w: authors[%d]: duplicate id %d", ErrInvalidDataset, i, a.ID)
		}
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("%w: authors[%d]: name is empty", ErrInvalidDataset, i)
		}
		seen[a.ID] = struct{}{}
	}
	clear(seen)
	for i, b := range ds.Books {
		if b.ID <= 0 {
			return fmt.Errorf("%w: books[%d]: id must be positive", ErrInvalidDataset, i)
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("%w: books[%d]: duplicate id %d", ErrInvalidDataset, i, b.ID)
		}
		if strings.TrimSpace(b.Name) == "" {
			return fmt.Errorf("%w: books[%d]: name is empty", ErrInvalidDataset, i)
		}
		seen[b.ID] = struct{}{}
	}
	return nil
}

func (ds Dataset) maxAuthorID() int {
	n := 0
	for _, a := range ds.Authors {
		n = max(n, a.ID)
	}
	return n
}

func (ds Dataset) maxBookID() int {
	n := 0
	for _, b := range ds.Books {
		n = max(n, b.ID)
	}
	return n
}
