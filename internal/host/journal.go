package host

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Journal is the instruction file handed to the host application on its
// command line. The in-process add-in reads it to learn what to run and
// where to write results.
type Journal struct {
	ID               string `yaml:"id"`
	Kind             string `yaml:"kind"`
	Assembly         string `yaml:"assembly"`
	Fixture          string `yaml:"fixture,omitempty"`
	Test             string `yaml:"test,omitempty"`
	Model            string `yaml:"model,omitempty"`
	Results          string `yaml:"results"`
	Append           bool   `yaml:"append"`
	WorkingDirectory string `yaml:"workingDirectory,omitempty"`
	Debug            bool   `yaml:"debug"`
}

// NewJournal builds the journal for unit.
func NewJournal(unit Unit, appendResults, debug bool) Journal {
	return Journal{
		ID:               uuid.NewString(),
		Kind:             unit.Kind.String(),
		Assembly:         unit.Assembly,
		Fixture:          unit.Fixture,
		Test:             unit.Test,
		Model:            unit.ModelPath,
		Results:          unit.ResultsPath,
		Append:           appendResults,
		WorkingDirectory: unit.WorkingDirectory,
		Debug:            debug,
	}
}

// WriteJournal writes j into dir and returns the file path.
func WriteJournal(dir string, j Journal, label string) (string, error) {
	data, err := yaml.Marshal(&j)
	if err != nil {
		return "", fmt.Errorf("failed to marshal journal: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", sanitizeFileName(label), j.ID[:8]))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write journal: %w", err)
	}
	return path, nil
}

// ReadJournal parses a journal file.
func ReadJournal(path string) (Journal, error) {
	var j Journal
	data, err := os.ReadFile(path)
	if err != nil {
		return j, fmt.Errorf("failed to read journal: %w", err)
	}
	if err := yaml.Unmarshal(data, &j); err != nil {
		return j, fmt.Errorf("failed to parse journal %s: %w", path, err)
	}
	return j, nil
}

func sanitizeFileName(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)

	sanitized := replacer.Replace(name)
	if sanitized == "" {
		sanitized = "unit"
	}
	if len(sanitized) > 50 {
		sanitized = sanitized[:50]
	}
	return sanitized
}
