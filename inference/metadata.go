package inference

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Metadata describes classifier artifact, it is usually shipped as JSON
// file next to the model
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
}

// LoadMetadata reads model metadata from given JSON file
func LoadMetadata(fname string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Clean(fname))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read metadata")
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrap(err, "failed to parse metadata")
	}
	return &meta, nil
}

// CheckClasses verifies that metadata classes match given labels in order
func (m *Metadata) CheckClasses(labels []string) error {
	if len(m.Classes) != len(labels) {
		return errors.Errorf("model has %d classes, catalog has %d labels", len(m.Classes), len(labels))
	}
	for i, c := range m.Classes {
		if c != labels[i] {
			return errors.Errorf("model class %d is %q, catalog label is %q", i, c, labels[i])
		}
	}
	return nil
}
