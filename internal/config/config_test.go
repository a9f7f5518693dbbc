package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/takak2166/backpack2keepassx/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func TestParsePages(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		expected    []models.PageRequest
		expectError bool
	}{
		{
			name:    "Order preserved",
			content: "Servers: 30\nBank: 66\n^Mail: 12\n",
			expected: []models.PageRequest{
				{Pattern: "Servers", Icon: 30},
				{Pattern: "Bank", Icon: 66},
				{Pattern: "^Mail", Icon: 12},
			},
		},
		{
			name:    "Non integer icons fall back",
			content: "Bank: key\nMail:\nWiki: 1.5\nShop: \"7\"\n",
			expected: []models.PageRequest{
				{Pattern: "Bank", Icon: 48},
				{Pattern: "Mail", Icon: 48},
				{Pattern: "Wiki", Icon: 48},
				{Pattern: "Shop", Icon: 48},
			},
		},
		{
			name:        "Not a mapping",
			content:     "- Bank\n- Mail\n",
			expectError: true,
		},
		{
			name:        "Empty document",
			content:     "",
			expectError: true,
		},
		{
			name:        "Invalid YAML",
			content:     "Bank: [48",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParsePages([]byte(tt.content))
			if tt.expectError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("ParsePages() = %+v, want %+v", result, tt.expected)
			}
		})
	}
}

func TestLoadPages(t *testing.T) {
	path := writeFile(t, "keepassx.yml", "Bank: 66\n")
	requests, err := LoadPages(path)
	if err != nil {
		t.Fatalf("LoadPages() error = %v", err)
	}
	if len(requests) != 1 || requests[0].Icon != 66 {
		t.Errorf("LoadPages() = %+v", requests)
	}

	_, err = LoadPages(filepath.Join(t.TempDir(), "missing.yml"))
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigError, got %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		envVars     map[string]string
		noFile      bool
		expected    Credentials
		expectError bool
	}{
		{
			name:     "From file",
			content:  "username: alice\ntoken: abc123\n",
			expected: Credentials{Username: "alice", Token: "abc123"},
		},
		{
			name:    "Environment overrides file",
			content: "username: alice\ntoken: abc123\n",
			envVars: map[string]string{
				"BACKPACK_TOKEN": "fromenv",
			},
			expected: Credentials{Username: "alice", Token: "fromenv"},
		},
		{
			name:   "Environment only",
			noFile: true,
			envVars: map[string]string{
				"BACKPACK_USERNAME": "bob",
				"BACKPACK_TOKEN":    "t0k3n",
			},
			expected: Credentials{Username: "bob", Token: "t0k3n"},
		},
		{
			name:        "Missing file",
			noFile:      true,
			expectError: true,
		},
		{
			name:        "Missing token",
			content:     "username: alice\n",
			expectError: true,
		},
		{
			name:        "Unparsable file",
			content:     "username: [alice",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BACKPACK_USERNAME", "")
			t.Setenv("BACKPACK_TOKEN", "")
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			path := filepath.Join(t.TempDir(), "backpack.yml")
			if !tt.noFile {
				path = writeFile(t, "backpack.yml", tt.content)
			}

			creds, err := LoadCredentials(path)
			if tt.expectError {
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("Expected ConfigError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if creds != tt.expected {
				t.Errorf("LoadCredentials() = %+v, want %+v", creds, tt.expected)
			}
		})
	}
}

func TestEnv(t *testing.T) {
	t.Setenv("B2K_TEST_VALUE", "set")
	t.Setenv("B2K_TEST_NUMBER", "4")
	t.Setenv("B2K_TEST_BAD_NUMBER", "four")

	if got := Env("B2K_TEST_VALUE", "fallback"); got != "set" {
		t.Errorf("Env() = %q", got)
	}
	if got := Env("B2K_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("Env() = %q", got)
	}
	if got := EnvInt("B2K_TEST_NUMBER", 1); got != 4 {
		t.Errorf("EnvInt() = %d", got)
	}
	if got := EnvInt("B2K_TEST_BAD_NUMBER", 1); got != 1 {
		t.Errorf("EnvInt() = %d", got)
	}
}
