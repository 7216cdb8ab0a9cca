package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/urfave/cli/v2"

	"github.com/sorenblake/memcap/internal/mcp"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(h *mcp.Handlers) *cli.App {
	app := &cli.App{
		Name:    "memcap",
		Usage:   "Capsule memory store",
		Version: Version,
		Commands: []*cli.Command{
			storeCmd(h),
			searchCmd(h),
			recentCmd(h),
			listCmd(h),
			createCmd(h),
			infoCmd(h),
			deleteCmd(h),
			providerCmd(h),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// runTool dispatches an operation through the shared handler layer and prints
// the result text. Error envelopes become process errors.
func runTool(h *mcp.Handlers, operation string, args map[string]any) error {
	result, err := h.Dispatch(context.Background(), operation, args)
	if err != nil {
		return err
	}

	var text strings.Builder
	for _, content := range result.Content {
		if tc, ok := content.(mcpgo.TextContent); ok {
			text.WriteString(tc.Text)
		}
	}

	if result.IsError {
		return errors.New(text.String())
	}
	fmt.Println(text.String())
	return nil
}

// storeCmd creates the store command.
func storeCmd(h *mcp.Handlers) *cli.Command {
	return &cli.Command{
		Name:  "store",
		Usage: "Store a memory in a capsule (reads text from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "capsule", Aliases: []string{"c"}, Required: true, Usage: "Capsule name"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Memory title"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
			&cli.StringFlag{Name: "metadata", Usage: "Metadata as a JSON object"},
			&cli.BoolFlag{Name: "embed", Usage: "Compute an embedding for semantic search"},
			&cli.StringFlag{Name: "model", Usage: "Embedding model override"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return errors.New("memory text must be piped via stdin")
			}
			text, err := readStdin()
			if err != nil {
				return err
			}

			args := map[string]any{
				"capsule": c.String("capsule"),
				"text":    text,
			}
			if title := c.String("title"); title != "" {
				args["title"] = title
			}
			if tags := c.String("tags"); tags != "" {
				args["tags"] = parseTags(tags)
			}
			if meta := c.String("metadata"); meta != "" {
				var parsed map[string]any
				if err := json.Unmarshal([]byte(meta), &parsed); err != nil {
					return fmt.Errorf("invalid metadata JSON: %w", err)
				}
				args["metadata"] = parsed
			}
			if c.Bool("embed") {
				args["enable_embedding"] = true
			}
			if model := c.String("model"); model != "" {
				args["embedding_model"] = model
			}

			return runTool(h, "memory_store", args)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(h *mcp.Handlers) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search a capsule",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "capsule", Aliases: []string{"c"}, Required: true, Usage: "Capsule name"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "auto", Usage: "Search mode: auto|semantic|lexical"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum results"},
		},
		Action: func(c *cli.Context) error {
			query := c.Args().First()
			if query == "" {
				return errors.New("query argument is required")
			}

			var operation string
			switch c.String("mode") {
			case "auto":
				operation = "memory_search_auto"
			case "semantic":
				operation = "memory_search_semantic"
			case "lexical":
				operation = "memory_search_lexical"
			default:
				return fmt.Errorf("unknown mode %q", c.String("mode"))
			}

			args := map[string]any{
				"capsule": c.String("capsule"),
				"query":   query,
			}
			if limit := c.Int("limit"); limit > 0 {
				args["limit"] = limit
			}
			return runTool(h, operation, args)
		},
	}
}

// recentCmd creates the recent command.
func recentCmd(h *mcp.Handlers) *cli.Command {
	return &cli.Command{
		Name:  "recent",
		Usage: "List the most recently stored memories in a capsule",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "capsule", Aliases: []string{"c"}, Required: true, Usage: "Capsule name"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum results"},
		},
		Action: func(c *cli.Context) error {
			args := map[string]any{"capsule": c.String("capsule")}
			if limit := c.Int("limit"); limit > 0 {
				args["limit"] = limit
			}
			return runTool(h, "memory_recent", args)
		},
	}
}

// listCmd creates the list command.
func listCmd(h *mcp.Handlers) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List all capsules",
		Action: func(c *cli.Context) error {
			return runTool(h, "capsule_list", map[string]any{})
		},
	}
}

// createCmd creates the create command.
func createCmd(h *mcp.Handlers) *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create an empty capsule",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			name := c.Args().First()
			if name == "" {
				return errors.New("name argument is required")
			}
			return runTool(h, "capsule_create", map[string]any{"name": name})
		},
	}
}

// infoCmd creates the info command.
func infoCmd(h *mcp.Handlers) *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Show capsule path, existence, and item counts",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			name := c.Args().First()
			if name == "" {
				return errors.New("name argument is required")
			}
			return runTool(h, "capsule_info", map[string]any{"capsule": name})
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(h *mcp.Handlers) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a capsule and its backing file",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "confirm", Usage: "Confirm deletion"},
		},
		Action: func(c *cli.Context) error {
			name := c.Args().First()
			if name == "" {
				return errors.New("name argument is required")
			}
			return runTool(h, "capsule_delete", map[string]any{
				"capsule": name,
				"confirm": c.Bool("confirm"),
			})
		},
	}
}

// providerCmd creates the provider command.
func providerCmd(h *mcp.Handlers) *cli.Command {
	return &cli.Command{
		Name:  "provider",
		Usage: "Show the effective embedding provider configuration",
		Action: func(c *cli.Context) error {
			return runTool(h, "provider_config", map[string]any{})
		},
	}
}

// stdinHasData returns true if stdin has piped data available.
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all of stdin as a trimmed string.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// parseTags splits a comma-separated tag list, dropping empty entries.
func parseTags(s string) []string {
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
