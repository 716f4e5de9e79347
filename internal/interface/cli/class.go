package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/neilberkman/lectern/internal/core/models"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"
)

var (
	classCode  string
	classColor string
	classSince string
	classFull  bool
)

var classCmd = &cobra.Command{
	Use:   "class",
	Short: "Create, list, show and delete classes",
}

var classCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a class",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassCreate,
}

var classListCmd = &cobra.Command{
	Use:   "list",
	Short: "List classes in creation order",
	RunE:  runClassList,
}

var classShowCmd = &cobra.Command{
	Use:   "show <class-id>",
	Short: "Show a class and its sessions",
	Long: `Show a class and its sessions, newest first.

Examples:
  lectern class show biology-101-a1b2c3
  lectern class show biology-101-a1b2c3 --since "last week"
  lectern class show biology-101-a1b2c3 --since 2025-09-01 --full`,
	Args: cobra.ExactArgs(1),
	RunE: runClassShow,
}

var classDeleteCmd = &cobra.Command{
	Use:   "delete <class-id>",
	Short: "Delete a class, its sessions and archived files",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassDelete,
}

func init() {
	rootCmd.AddCommand(classCmd)
	classCmd.AddCommand(classCreateCmd, classListCmd, classShowCmd, classDeleteCmd)

	classCreateCmd.Flags().StringVar(&classCode, "code", "", "Short course code (default: the class id)")
	classCreateCmd.Flags().StringVar(&classColor, "color", "", "UI color tag (default: "+models.DefaultColor+")")
	classShowCmd.Flags().StringVar(&classSince, "since", "", "Only sessions after this date (e.g. yesterday, \"last week\", 2025-09-01)")
	classShowCmd.Flags().BoolVar(&classFull, "full", false, "Print summaries and insights in full")
}

func runClassCreate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	class, err := a.agent.CreateClass(args[0], classCode, classColor)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", okStyle.Render("Created"), titleStyle.Render(class.Name))
	fmt.Printf("  ID: %s\n", idStyle.Render(class.ClassID))
	return nil
}

func runClassList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	classes, err := a.db.ListClasses()
	if err != nil {
		return fmt.Errorf("failed to list classes: %w", err)
	}
	if len(classes) == 0 {
		fmt.Println("No classes yet. Create one with: lectern class create \"Biology 101\"")
		return nil
	}

	for _, c := range classes {
		fmt.Printf("%s  %s\n", titleStyle.Render(c.Name), idStyle.Render(c.ClassID))
		last := "no sessions"
		if c.LastSessionAt != nil {
			last = "last " + formatTimestamp(*c.LastSessionAt)
		}
		fmt.Println(metaStyle.Render(fmt.Sprintf("    %s · %s · %s",
			c.Code, pluralize(c.SessionsCount, "session"), last)))
	}
	return nil
}

func runClassShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	class, err := a.db.GetClass(args[0])
	if err != nil {
		return err
	}
	if class == nil {
		return errs.E(errs.NotFound, "show class", errs.ErrClassNotFound, args[0])
	}

	sessions := class.Sessions
	if classSince != "" {
		since, err := parseDate(classSince)
		if err != nil {
			return err
		}
		if sessions, err = a.db.SessionsSince(class.ClassID, since); err != nil {
			return err
		}
	}

	fmt.Println(titleStyle.Render(class.Name))
	fmt.Println(metaStyle.Render(fmt.Sprintf("ID: %s · Code: %s · Created %s",
		class.ClassID, class.Code, formatTimestamp(class.CreatedAt))))
	fmt.Println()

	if len(sessions) == 0 {
		fmt.Println("No sessions.")
		return nil
	}
	for _, s := range sessions {
		printSession(s, classFull)
	}
	return nil
}

func printSession(s models.Session, full bool) {
	fmt.Printf("%s  %s\n", headingStyle.Render(s.Title), idStyle.Render(s.SessionID))
	fmt.Println(metaStyle.Render(fmt.Sprintf("    %s · %s", formatTimestamp(s.CreatedAt), humanize.Bytes(uint64(len(s.Content))))))

	switch {
	case !s.HasSummary():
		fmt.Println(metaStyle.Render("    (not summarized)"))
	case full:
		fmt.Printf("\n%s\n", s.SummaryText())
	default:
		fmt.Printf("    %s\n", truncate(s.SummaryText(), 100))
	}

	if full && s.Insights != nil {
		for _, part := range []struct{ name, text string }{
			{"Most important", s.Insights.MostImportant},
			{"Small details", s.Insights.SmallDetails},
			{"Action items", s.Insights.ActionItems},
			{"Questions", s.Insights.Questions},
		} {
			if part.text != "" {
				fmt.Printf("\n%s\n%s\n", headingStyle.Render(part.name), part.text)
			}
		}
	}
	fmt.Println()
}

func runClassDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	existed, err := a.db.DeleteClass(args[0])
	if err != nil && !existed {
		return err
	}
	if !existed {
		return errs.E(errs.NotFound, "delete class", errs.ErrClassNotFound, args[0])
	}
	fmt.Printf("%s %s\n", okStyle.Render("Deleted"), args[0])
	// A partial failure still deleted the class; only the archive is left behind
	return err
}

// parseDate accepts natural language ("yesterday", "last week") or a date
func parseDate(s string) (time.Time, error) {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	if r, err := w.Parse(s, time.Now()); err == nil && r != nil {
		return r.Time, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006/01/02", "01/02/2006"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errs.Validationf("parse date", "could not understand date %q", s)
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
