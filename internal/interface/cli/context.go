package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkoukk/tiktoken-go"
	"github.com/spf13/cobra"
)

var contextTokens bool

var contextCmd = &cobra.Command{
	Use:   "context <class-id>",
	Short: "Print the context a question about a class would be answered from",
	Long: `Print the assembled class context (every session, newest first, with its
summary and transcript) exactly as it is sent to the model.

With --tokens only the size is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	rootCmd.AddCommand(contextCmd)
	contextCmd.Flags().BoolVar(&contextTokens, "tokens", false, "Print the estimated token count instead of the context")
}

func runContext(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	text, err := a.agent.ClassContext(args[0])
	if err != nil {
		return err
	}

	if !contextTokens {
		fmt.Println(text)
		return nil
	}

	n, exact := countTokens(text)
	label := "tokens"
	if !exact {
		label = "tokens (estimated)"
	}
	fmt.Printf("%s %s, %s\n", humanize.Comma(int64(n)), label, humanize.Bytes(uint64(len(text))))
	return nil
}

// countTokens uses the cl100k encoding; if it cannot be loaded the count
// falls back to four bytes per token
func countTokens(text string) (int, bool) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		fmt.Fprintln(os.Stderr, metaStyle.Render("tokenizer unavailable: "+err.Error()))
		return len(text) / 4, false
	}
	return len(enc.Encode(text, nil, nil)), true
}
