package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/takak2166/backpack2keepassx/internal/models"
)

// ConfigError reports a configuration file that could not be used
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("could not load configuration file %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Credentials for the Backpack account
type Credentials struct {
	Username string `yaml:"username"`
	Token    string `yaml:"token"`
}

// LoadCredentials reads credentials from a YAML file. BACKPACK_USERNAME and
// BACKPACK_TOKEN override the file; the file may be absent when both are set.
func LoadCredentials(path string) (Credentials, error) {
	var creds Credentials

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &creds); err != nil {
			return Credentials{}, &ConfigError{Path: path, Err: err}
		}
	case os.IsNotExist(err) && os.Getenv("BACKPACK_USERNAME") != "" && os.Getenv("BACKPACK_TOKEN") != "":
	default:
		return Credentials{}, &ConfigError{Path: path, Err: err}
	}

	creds.Username = Env("BACKPACK_USERNAME", creds.Username)
	creds.Token = Env("BACKPACK_TOKEN", creds.Token)

	if creds.Username == "" {
		return Credentials{}, &ConfigError{Path: path, Err: fmt.Errorf("username is not set")}
	}
	if creds.Token == "" {
		return Credentials{}, &ConfigError{Path: path, Err: fmt.Errorf("token is not set")}
	}
	return creds, nil
}

// LoadPages reads the page title pattern to icon mapping from a YAML file
func LoadPages(path string) ([]models.PageRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	requests, err := ParsePages(data)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return requests, nil
}

// ParsePages decodes a YAML mapping of page title patterns to icon numbers,
// keeping the mapping order. Icons that are not whole numbers become
// models.DefaultIcon.
func ParsePages(data []byte) ([]models.PageRequest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return nil, fmt.Errorf("no pages configured")
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping of page titles to icons at line %d", root.Line)
	}

	requests := make([]models.PageRequest, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode || key.Value == "" {
			return nil, fmt.Errorf("invalid page title at line %d", key.Line)
		}
		requests = append(requests, models.PageRequest{
			Pattern: key.Value,
			Icon:    icon(value),
		})
	}
	return requests, nil
}

func icon(node *yaml.Node) int {
	if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!int" {
		return models.DefaultIcon
	}
	var n int
	if err := node.Decode(&n); err != nil {
		return models.DefaultIcon
	}
	return n
}

// Env returns the environment variable or fallback when it is empty
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnvInt returns the environment variable as an int, or fallback
func EnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
