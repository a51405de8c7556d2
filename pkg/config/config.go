// Package config provides simple configuration loading for the
// command-line tooling
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ImportJob describes one CSV-to-partition import run.
type ImportJob struct {
	// Schema is an inline "name:type, ..." declaration list.
	Schema string `yaml:"schema"`
	// SchemaFile names a declaration file used instead of Schema.
	SchemaFile string `yaml:"schema_file"`
	// CSV is the delimited input file.
	CSV string `yaml:"csv"`
	// Delimiter lists the accepted field separators; defaults to ",".
	Delimiter string `yaml:"delimiter"`
	// MaxRows reserves buffer capacity up front when > 1.
	MaxRows int `yaml:"max_rows"`
	// Out is the partition directory to create or append to.
	Out string `yaml:"out"`
	// Name, Description and Index override the partition metadata.
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Index       string `yaml:"index"`
}

// Validate checks that the job names its inputs and output.
func (j *ImportJob) Validate() error {
	if j.Schema == "" && j.SchemaFile == "" {
		return fmt.Errorf("import job needs a schema or schema_file")
	}
	if j.CSV == "" {
		return fmt.Errorf("import job needs a csv input file")
	}
	if j.Out == "" {
		return fmt.Errorf("import job needs an output directory")
	}
	return nil
}

// Load loads a configuration from a YAML file
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller and validated
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Substitute environment variables
	content := string(data)
	content = substituteEnvVars(content)

	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		varValue := os.Getenv(varName)
		content = content[:start] + varValue + content[end+1:]
	}
	return content
}
