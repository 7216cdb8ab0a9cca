package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sorenblake/memcap/internal/capsule"
	"github.com/sorenblake/memcap/internal/config"
	"github.com/sorenblake/memcap/internal/engine"
	"github.com/sorenblake/memcap/internal/mcp"
	"github.com/sorenblake/memcap/internal/provider"
)

// setupTestHandlers wires handlers over a temporary storage root.
func setupTestHandlers(t *testing.T) *mcp.Handlers {
	t.Helper()

	resolver := capsule.NewResolver(t.TempDir())
	if err := resolver.EnsureRoot(); err != nil {
		t.Fatalf("failed to create storage root: %v", err)
	}
	cache := capsule.NewCache(resolver, func(path string, create bool) (engine.Handle, error) {
		return engine.Open(path, create, engine.Options{})
	})
	prov := provider.NewResolver(&config.Config{})
	return mcp.NewHandlers(cache, resolver, prov, zerolog.Nop())
}

// captureStdout runs fn with stdout redirected to a buffer.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	runErr := fn()

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), runErr
}

// withStdin runs fn with stdin fed from the given content.
func withStdin(t *testing.T, content string, fn func() error) error {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	go func() {
		_, _ = w.WriteString(content)
		w.Close()
	}()

	oldStdin := os.Stdin
	os.Stdin = r
	defer func() { os.Stdin = oldStdin }()

	return fn()
}

// TestParseTags tests the parseTags helper function.
func TestParseTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "single tag",
			input:    "foo",
			expected: []string{"foo"},
		},
		{
			name:     "multiple tags",
			input:    "foo,bar,baz",
			expected: []string{"foo", "bar", "baz"},
		},
		{
			name:     "tags with spaces",
			input:    " foo , bar , baz ",
			expected: []string{"foo", "bar", "baz"},
		},
		{
			name:     "empty tags filtered",
			input:    "foo,,bar,",
			expected: []string{"foo", "bar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseTags(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("expected %d tags, got %d", len(tt.expected), len(result))
				return
			}
			for i, tag := range result {
				if tag != tt.expected[i] {
					t.Errorf("expected tag[%d]=%q, got %q", i, tt.expected[i], tag)
				}
			}
		})
	}
}

// TestCLIStore tests the store command end to end.
func TestCLIStore(t *testing.T) {
	h := setupTestHandlers(t)
	app := newCLIApp(h)

	output, err := captureStdout(t, func() error {
		return withStdin(t, "remember this\n", func() error {
			return app.Run([]string{"memcap", "store", "--capsule=notes", "--tags=foo,bar"})
		})
	})
	if err != nil {
		t.Fatalf("store command failed: %v", err)
	}
	if !strings.Contains(output, "Stored memory") {
		t.Errorf("output = %q, want store confirmation", output)
	}
}

// TestCLIStoreInvalidMetadata tests that malformed metadata JSON is rejected.
func TestCLIStoreInvalidMetadata(t *testing.T) {
	h := setupTestHandlers(t)
	app := newCLIApp(h)

	err := withStdin(t, "text", func() error {
		return app.Run([]string{"memcap", "store", "--capsule=notes", "--metadata=not-json"})
	})
	if err == nil {
		t.Error("expected error for malformed metadata JSON")
	}
}

// TestCLICreateListInfo tests create, list, and info together.
func TestCLICreateListInfo(t *testing.T) {
	h := setupTestHandlers(t)
	app := newCLIApp(h)

	if _, err := captureStdout(t, func() error {
		return app.Run([]string{"memcap", "create", "notes"})
	}); err != nil {
		t.Fatalf("create command failed: %v", err)
	}

	listed, err := captureStdout(t, func() error {
		return app.Run([]string{"memcap", "list"})
	})
	if err != nil {
		t.Fatalf("list command failed: %v", err)
	}
	if !strings.Contains(listed, "notes") {
		t.Errorf("list output = %q, want the created capsule", listed)
	}

	infoOut, err := captureStdout(t, func() error {
		return app.Run([]string{"memcap", "info", "notes"})
	})
	if err != nil {
		t.Fatalf("info command failed: %v", err)
	}
	var info mcp.InfoResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(infoOut)), &info); err != nil {
		t.Fatalf("info output is not valid JSON: %v\nOutput: %s", err, infoOut)
	}
	if !info.Exists {
		t.Error("expected exists=true")
	}
}

// TestCLIDelete tests the delete command confirmation gate.
func TestCLIDelete(t *testing.T) {
	h := setupTestHandlers(t)
	app := newCLIApp(h)

	if _, err := captureStdout(t, func() error {
		return app.Run([]string{"memcap", "create", "notes"})
	}); err != nil {
		t.Fatalf("create command failed: %v", err)
	}

	t.Run("without confirm returns error", func(t *testing.T) {
		_, err := captureStdout(t, func() error {
			return app.Run([]string{"memcap", "delete", "notes"})
		})
		if err == nil {
			t.Error("expected error without --confirm")
		}
	})

	// Flags go before the positional name: urfave/cli stops flag parsing at
	// the first positional argument.
	t.Run("with confirm deletes", func(t *testing.T) {
		output, err := captureStdout(t, func() error {
			return app.Run([]string{"memcap", "delete", "--confirm", "notes"})
		})
		if err != nil {
			t.Fatalf("delete command failed: %v", err)
		}
		if !strings.Contains(output, "Deleted") {
			t.Errorf("output = %q, want deletion confirmation", output)
		}
	})
}

// TestCLISearchUnknownMode tests mode validation in the search command.
func TestCLISearchUnknownMode(t *testing.T) {
	h := setupTestHandlers(t)
	app := newCLIApp(h)

	err := app.Run([]string{"memcap", "search", "--capsule=notes", "--mode=psychic", "hello"})
	if err == nil {
		t.Error("expected error for unknown search mode")
	}
}

// TestCLIProvider tests the provider command output.
func TestCLIProvider(t *testing.T) {
	h := setupTestHandlers(t)
	app := newCLIApp(h)

	output, err := captureStdout(t, func() error {
		return app.Run([]string{"memcap", "provider"})
	})
	if err != nil {
		t.Fatalf("provider command failed: %v", err)
	}
	var snap provider.Snapshot
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &snap); err != nil {
		t.Fatalf("provider output is not valid JSON: %v", err)
	}
	if snap.DefaultModel == "" {
		t.Error("expected a default model")
	}
}

// TestIsCLIMode tests the isCLIMode function.
func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{
			name:     "no args",
			args:     []string{"memcap"},
			expected: false,
		},
		{
			name:     "store command",
			args:     []string{"memcap", "store"},
			expected: true,
		},
		{
			name:     "search command",
			args:     []string{"memcap", "search"},
			expected: true,
		},
		{
			name:     "help flag",
			args:     []string{"memcap", "--help"},
			expected: true,
		},
		{
			name:     "version flag",
			args:     []string{"memcap", "--version"},
			expected: true,
		},
		{
			name:     "unknown arg defaults to MCP",
			args:     []string{"memcap", "--unknown"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if result := isCLIMode(); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

// TestIsHelpOrVersion tests the isHelpOrVersion function.
func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{
			name:     "no args",
			args:     []string{"memcap"},
			expected: false,
		},
		{
			name:     "help flag",
			args:     []string{"memcap", "--help"},
			expected: true,
		},
		{
			name:     "help subcommand",
			args:     []string{"memcap", "help"},
			expected: true,
		},
		{
			name:     "store command is not help",
			args:     []string{"memcap", "store"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if result := isHelpOrVersion(); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}
