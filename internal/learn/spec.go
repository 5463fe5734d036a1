package learn

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/purs3lab/arbitrar/internal/database"
)

// FunctionSpec is a declarative description of how a correctly-used API
// function behaves, evaluated against a data point's feature document.
// A point that does not satisfy the specification is an alarm.
type FunctionSpec struct {
	// InvokedBefore / InvokedAfter name functions that must appear as
	// invoked in the corresponding feature map.
	InvokedBefore []string `yaml:"invoked_before" json:"invoked_before"`
	InvokedAfter  []string `yaml:"invoked_after" json:"invoked_after"`

	// NotInvokedBefore / NotInvokedAfter name functions that must not.
	NotInvokedBefore []string `yaml:"not_invoked_before" json:"not_invoked_before"`
	NotInvokedAfter  []string `yaml:"not_invoked_after" json:"not_invoked_after"`

	// RetvalChecked, when set, requires the return value to be (or not be)
	// checked before use.
	RetvalChecked *bool `yaml:"retval_checked" json:"retval_checked"`
}

// LoadFunctionSpec reads a spec file. Format is detected by extension
// (.yaml/.yml or .json) or, failing that, by content.
func LoadFunctionSpec(path string) (*FunctionSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read function spec: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yml" {
		ext = ".yaml"
	}
	var s FunctionSpec
	switch ext {
	case ".yaml":
		err = yaml.Unmarshal(data, &s)
	case ".json":
		err = json.Unmarshal(data, &s)
	default:
		if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
			err = json.Unmarshal(data, &s)
		} else {
			err = yaml.Unmarshal(data, &s)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("parse function spec %s: %w", path, err)
	}
	return &s, nil
}

// Match loads the point's feature document and reports whether it satisfies
// the specification.
func (s *FunctionSpec) Match(dp *database.DataPoint) (bool, error) {
	feat, err := dp.Feature()
	if err != nil {
		return false, err
	}

	before := invokedMap(feat, "invoked_before")
	after := invokedMap(feat, "invoked_after")

	for _, fn := range s.InvokedBefore {
		if !before[fn] {
			return false, nil
		}
	}
	for _, fn := range s.InvokedAfter {
		if !after[fn] {
			return false, nil
		}
	}
	for _, fn := range s.NotInvokedBefore {
		if before[fn] {
			return false, nil
		}
	}
	for _, fn := range s.NotInvokedAfter {
		if after[fn] {
			return false, nil
		}
	}
	if s.RetvalChecked != nil && retvalChecked(feat) != *s.RetvalChecked {
		return false, nil
	}
	return true, nil
}

// invokedMap extracts a causality feature map; absent or malformed maps are
// empty, i.e. nothing was invoked.
func invokedMap(feat database.Document, key string) map[string]bool {
	out := map[string]bool{}
	m, ok := feat[key].(map[string]any)
	if !ok {
		return out
	}
	for fn, v := range m {
		if b, ok := v.(bool); ok {
			out[fn] = b
		}
	}
	return out
}

// retvalChecked reads the "checked" flag of the return-value feature block.
func retvalChecked(feat database.Document) bool {
	m, ok := feat["retval"].(map[string]any)
	if !ok {
		return false
	}
	b, _ := m["checked"].(bool)
	return b
}
