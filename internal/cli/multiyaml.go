package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tansive/tansive-pipedrive/internal/tasks"
)

// ParseMultiYAML reads a step file, expands {{ .ENV.NAME }} placeholders and
// returns its YAML documents. A .env file next to the step file is consulted
// for variables missing from the environment.
func ParseMultiYAML(filename string) ([]map[string]any, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	data = replaceTabsWithSpaces(data)

	data, err = PreprocessYAML(data, filepath.Dir(filename))
	if err != nil {
		return nil, err
	}

	return ParseMultiYAMLFromBytes(data)
}

// ParseMultiYAMLFromBytes parses byte data containing multiple YAML documents
// Returns a slice of maps containing the parsed YAML documents
func ParseMultiYAMLFromBytes(data []byte) ([]map[string]any, error) {
	// If data is empty or contains only whitespace or only --- separators, return empty slice
	content := strings.TrimSpace(string(data))
	if len(content) == 0 || strings.Trim(content, "- \n\t") == "" {
		return []map[string]any{}, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	var result []map[string]any

	for {
		var doc map[string]any
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode YAML: %w", err)
		}
		// Skip empty documents (common with trailing ---)
		if len(doc) > 0 {
			result = append(result, doc)
		}
	}

	return result, nil
}

// Keys a step document may contain.
var stepKeys = map[string]bool{"id": true, "type": true, "version": true, "params": true}

// ParseSteps converts step documents into task steps. A document needs a
// type; its id defaults to step-N, N counting from 1.
func ParseSteps(docs []map[string]any) ([]tasks.Step, error) {
	steps := make([]tasks.Step, 0, len(docs))
	seen := make(map[string]int, len(docs))
	for i, doc := range docs {
		var unknown []string
		for k := range doc {
			if !stepKeys[k] {
				unknown = append(unknown, k)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			return nil, fmt.Errorf("step %d: unknown keys %s", i+1, strings.Join(unknown, ", "))
		}

		step := tasks.Step{
			ID:      scalar(doc["id"]),
			Type:    scalar(doc["type"]),
			Version: scalar(doc["version"]),
		}
		if step.ID == "" {
			step.ID = fmt.Sprintf("step-%d", i+1)
		}
		if step.Type == "" {
			return nil, fmt.Errorf("step %s: type is required", step.ID)
		}
		if prev, ok := seen[step.ID]; ok {
			return nil, fmt.Errorf("step %d: id %s already used by step %d", i+1, step.ID, prev)
		}
		seen[step.ID] = i + 1

		switch p := doc["params"].(type) {
		case nil:
			step.Params = map[string]any{}
		case map[string]any:
			step.Params = p
		default:
			return nil, fmt.Errorf("step %s: params must be a mapping", step.ID)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func scalar(v any) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func replaceTabsWithSpaces(b []byte) []byte {
	return bytes.ReplaceAll(b, []byte("\t"), []byte("    "))
}
