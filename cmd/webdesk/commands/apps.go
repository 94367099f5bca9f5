package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/giraffenet/webdesk/internal/config"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Manage the start menu",
	Long:  `List, add and remove the applications offered in the start menu.`,
}

var appsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured applications",
	Example: `  # List applications in table format (default)
  webdesk apps list

  # List applications in JSON format
  webdesk apps list --format json`,
	RunE: runAppsList,
}

var appsAddCmd = &cobra.Command{
	Use:   "add ID TITLE",
	Short: "Add a static application",
	Long: `Add an application to the start menu. A running server picks up the
change without a restart.`,
	Example: `  # Add a page with inline HTML
  webdesk apps add readme "Read Me" --content "<h1>Hello</h1>" --desktop`,
	Args: cobra.ExactArgs(2),
	RunE: runAppsAdd,
}

var appsRemoveCmd = &cobra.Command{
	Use:     "remove ID",
	Aliases: []string{"rm"},
	Short:   "Remove an application",
	Args:    cobra.ExactArgs(1),
	RunE:    runAppsRemove,
}

var (
	appsFormat  string
	appsContent string
	appsIcon    string
	appsKind    string
	appsDesktop bool
	appsFrame   bool
)

func init() {
	rootCmd.AddCommand(appsCmd)
	appsCmd.AddCommand(appsListCmd)
	appsCmd.AddCommand(appsAddCmd)
	appsCmd.AddCommand(appsRemoveCmd)

	appsListCmd.Flags().StringVarP(&appsFormat, "format", "f", "table", "output format (table or json)")
	appsAddCmd.Flags().StringVar(&appsContent, "content", "", "HTML shown in the window")
	appsAddCmd.Flags().StringVar(&appsIcon, "icon", "", "icon URL")
	appsAddCmd.Flags().StringVar(&appsKind, "kind", string(config.AppKindStatic), "static, monitor or server-status")
	appsAddCmd.Flags().BoolVar(&appsDesktop, "desktop", false, "show an icon on the desktop")
	appsAddCmd.Flags().BoolVar(&appsFrame, "frameless", false, "open without a title bar")
}

func runAppsList(cmd *cobra.Command, args []string) error {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	entries := configMgr.Get().Apps

	switch appsFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	case "table":
		printAppsTable(entries)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", appsFormat)
	}
}

func printAppsTable(entries []config.AppEntry) {
	bold := color.New(color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 40
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("TITLE"), bold.Sprint("KIND"), bold.Sprint("DESKTOP"))
	for _, e := range entries {
		desktop := ""
		if e.Desktop {
			desktop = "yes"
		}
		tbl.AddRow(e.ID, e.Title, e.Kind, desktop)
	}

	fmt.Fprintln(color.Output, tbl)
	fmt.Printf("\nTotal: %d applications\n", len(entries))
}

func runAppsAdd(cmd *cobra.Command, args []string) error {
	kind := config.AppKind(appsKind)
	switch kind {
	case config.AppKindStatic, config.AppKindMonitor, config.AppKindServerStatus:
	default:
		return fmt.Errorf("invalid kind: %s (use: static, monitor, server-status)", appsKind)
	}

	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	entry := config.AppEntry{
		ID:        args[0],
		Title:     args[1],
		Icon:      appsIcon,
		Kind:      kind,
		Content:   appsContent,
		Desktop:   appsDesktop,
		Frameless: appsFrame,
	}
	if err := configMgr.AddApp(entry); err != nil {
		return err
	}

	fmt.Printf("Added application: %s\n", entry.ID)
	return nil
}

func runAppsRemove(cmd *cobra.Command, args []string) error {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := configMgr.RemoveApp(args[0]); err != nil {
		return err
	}

	fmt.Printf("Removed application: %s\n", args[0])
	return nil
}
