package commands

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF8C00"))
	holidayStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CF00"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
)

// SetVersionInfo is called from main with values set at link time.
func SetVersionInfo(version, commit string) {
	appVersion = version
	appCommit = commit
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "meal-roster",
		Short:         "Meal reservations for a residence dining room",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (commit: %s)", appVersion, appCommit),
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newHashPassphraseCmd())
	root.AddCommand(newWeekCmd())
	return root
}

// Execute runs the command line.
func Execute() error {
	return newRootCmd().Execute()
}
