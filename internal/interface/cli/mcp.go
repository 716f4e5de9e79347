package cli

import (
	"fmt"

	"github.com/neilberkman/lectern/cmd/lectern/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Start MCP server for assistant integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio so an assistant can
list classes, read sessions and ask questions about your lectures.

Configure in your MCP client config:
  {
    "mcpServers": {
      "lectern": {
        "command": "lectern",
        "args": ["serve-mcp"]
      }
    }
  }
`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := mcp.StartServer(a.db, a.agent); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
