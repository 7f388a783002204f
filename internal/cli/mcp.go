package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/craft/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for API mapping tools",
	Long: `Start the Model Context Protocol (MCP) server so coding assistants can
score, map and adapt API descriptions on demand.

The MCP server exposes:
- craft_score: similarity breakdown for two specs
- craft_synthesize: mapping rules for lists of source and target specs
- craft_generate: adapter code for one rule in one language

It communicates via stdio (standard MCP transport) and uses the mapping,
generator and lifecycle settings from .craft/config.yml.

Example:
  craft mcp`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace(cfgFile)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Craft MCP Server %s\n", Version)
	fmt.Fprintf(os.Stderr, "Project: %s\n\n", ws.rootDir)

	server, err := mcp.NewServer(mcp.Deps{
		Mapping:   ws.cfg.ToMappingConfig(),
		Generator: ws.generator(),
		Logger:    ws.logger,
		Version:   Version,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	// Serve (blocks until shutdown)
	if err := server.Serve(context.Background()); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
