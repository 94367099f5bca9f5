package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/giraffenet/webdesk/internal/window"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "Inspect and control a running server's windows",
	Long: `Query the window manager of a running webdesk server.

Without a subcommand the open windows are listed, bottom of the stack first.`,
	Example: `  # List windows of the local server
  webdesk windows

  # List windows in JSON format
  webdesk windows --format json

  # Open the system monitor
  webdesk windows open system-monitor

  # Close it again
  webdesk windows close system-monitor`,
	RunE: runWindowsList,
}

var windowsOpenCmd = &cobra.Command{
	Use:   "open APP",
	Short: "Launch an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return postServer("/api/apps/" + args[0] + "/launch")
	},
}

var windowsCloseCmd = &cobra.Command{
	Use:   "close ID",
	Short: "Close a window",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return postServer("/api/windows/" + args[0] + "/close")
	},
}

var windowsMinimizeCmd = &cobra.Command{
	Use:   "minimize ID",
	Short: "Minimize a window",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return postServer("/api/windows/" + args[0] + "/minimize")
	},
}

var windowsFrontCmd = &cobra.Command{
	Use:   "front ID",
	Short: "Restore and raise a window",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return postServer("/api/windows/" + args[0] + "/front")
	},
}

var (
	windowsFormat string
	windowsServer string
)

func init() {
	rootCmd.AddCommand(windowsCmd)
	windowsCmd.AddCommand(windowsOpenCmd)
	windowsCmd.AddCommand(windowsCloseCmd)
	windowsCmd.AddCommand(windowsMinimizeCmd)
	windowsCmd.AddCommand(windowsFrontCmd)

	windowsCmd.Flags().StringVarP(&windowsFormat, "format", "f", "table", "output format (table or json)")
	windowsCmd.PersistentFlags().StringVar(&windowsServer, "server", "", "server URL (default http://localhost:<server_port>)")
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

func serverURL() (string, error) {
	if windowsServer != "" {
		return windowsServer, nil
	}
	_, cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://localhost:%d", cfg.ServerPort), nil
}

func postServer(path string) error {
	base, err := serverURL()
	if err != nil {
		return err
	}

	resp, err := httpClient.Post(base+path, "application/json", bytes.NewReader([]byte("{}")))
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		if msg := body["error"]; msg != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return nil
}

func runWindowsList(cmd *cobra.Command, args []string) error {
	base, err := serverURL()
	if err != nil {
		return err
	}

	resp, err := httpClient.Get(base + "/api/desktop")
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var state window.DesktopState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return fmt.Errorf("failed to parse desktop state: %w", err)
	}

	switch windowsFormat {
	case "json":
		for i := range state.Windows {
			state.Windows[i].HTML = ""
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(state)
	case "table":
		printWindowsTable(state)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", windowsFormat)
	}
}

func printWindowsTable(state window.DesktopState) {
	if len(state.Windows) == 0 {
		fmt.Println("No open windows")
		return
	}

	bold := color.New(color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("TITLE"), bold.Sprint("STATE"), bold.Sprint("Z"), bold.Sprint("GEOMETRY"), "")
	for _, w := range state.Windows {
		marker := ""
		if w.Active {
			marker = "active"
		}
		geometry := fmt.Sprintf("%dx%d+%d+%d", w.Geometry.Width, w.Geometry.Height, w.Geometry.X, w.Geometry.Y)
		tbl.AddRow(w.ID, w.Title, w.State, w.Z, geometry, marker)
	}

	fmt.Fprintln(color.Output, tbl)
	if state.Degraded {
		fmt.Println("\nWarning: window manager is running degraded")
	}
}
