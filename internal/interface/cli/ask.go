package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/neilberkman/lectern/internal/core/llm"
	"github.com/spf13/cobra"
)

var (
	askStream  bool
	askAcross  bool
	askClasses []string
	askCopy    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [class-id] <question>",
	Short: "Ask a question about a class's lectures",
	Long: `Answer a question from the transcripts and summaries of one class, or of
several classes with --across.

Examples:
  lectern ask biology-101-a1b2c3 "What produces ATP?"
  lectern ask --stream biology-101-a1b2c3 "Summarize week 3"
  lectern ask --across "Which class covered entropy?"
  lectern ask --across --class bio-a1b2c3 --class chem-d4e5f6 "Compare the two labs"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVarP(&askStream, "stream", "s", false, "Print the answer as it is generated")
	askCmd.Flags().BoolVar(&askAcross, "across", false, "Search across classes instead of one")
	askCmd.Flags().StringSliceVar(&askClasses, "class", nil, "Limit --across to these class ids (repeatable)")
	askCmd.Flags().BoolVar(&askCopy, "copy", false, "Copy the answer to the clipboard")
}

func runAsk(cmd *cobra.Command, args []string) error {
	var classID, question string
	if askAcross {
		question = strings.Join(args, " ")
	} else {
		if len(args) < 2 {
			return errs.Validationf("ask", "usage: lectern ask <class-id> <question>")
		}
		classID, question = args[0], strings.Join(args[1:], " ")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	var answer string
	if askStream {
		var s *llm.Stream
		if askAcross {
			s, err = a.agent.AskAcrossClassesStream(ctx, question, askClasses)
		} else {
			s, err = a.agent.AskQuestionStream(ctx, classID, question)
		}
		if err != nil {
			return err
		}
		var b strings.Builder
		err = llm.TextOnly(s, func(text string) error {
			b.WriteString(text)
			_, werr := fmt.Fprint(os.Stdout, text)
			return werr
		})
		fmt.Println()
		if err != nil {
			return err
		}
		answer = b.String()
	} else {
		sp := newSpinner("Thinking...")
		sp.Start()
		if askAcross {
			answer, err = a.agent.AskAcrossClasses(ctx, question, askClasses)
		} else {
			answer, err = a.agent.AskQuestion(ctx, classID, question)
		}
		sp.Stop()
		if err != nil {
			return err
		}
		fmt.Println(answer)
	}

	if askCopy {
		if err := clipboard.WriteAll(answer); err != nil {
			fmt.Fprintln(os.Stderr, metaStyle.Render("Could not copy to clipboard: "+err.Error()))
		} else {
			fmt.Fprintln(os.Stderr, metaStyle.Render("Answer copied to clipboard"))
		}
	}
	return nil
}
