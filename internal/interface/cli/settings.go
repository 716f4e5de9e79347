package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change runtime settings",
	Long: `Runtime settings live in <data_dir>/settings.toml. A running server reads
the file at startup; change its settings through PUT /api/settings instead.

Known keys:
  asr_mode       free (local whisper.cpp) or fast (hosted Groq whisper)
  llm_provider   nvidia, groq or openai`,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one or all settings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) == 1 {
		fmt.Println(a.settings.GetKey(args[0], ""))
		return nil
	}

	values := a.settings.Get()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s = %s\n", k, values[k])
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.settings.Set(args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("%s %s = %s\n", okStyle.Render("✓"), args[0], args[1])
	return nil
}
