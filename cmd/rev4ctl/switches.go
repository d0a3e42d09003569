package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/muurk/rev4switch/internal/ui"
)

// Switch registry flags
var (
	switchID    int
	switchUnit  int
	switchLabel string
	switchYes   bool
)

func init() {
	switchesCmd.AddCommand(switchesListCmd)
	switchesCmd.AddCommand(switchesAddCmd)
	switchesCmd.AddCommand(switchesRemoveCmd)
	rootCmd.AddCommand(switchesCmd)
}

// switchesCmd groups the registry commands
var switchesCmd = &cobra.Command{
	Use:   "switches",
	Short: "Manage paired switches",
	Long: `Manage the registry of paired switches.

A paired switch is a name for an id/unit address. Named switches can be
used with encode, send and the interactive remote.`,
}

var switchesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List paired switches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if outputFormat == formatJSON {
			return printJSON(cmd, reg.Switches)
		}

		out := cmd.OutOrStdout()
		if len(reg.Switches) == 0 {
			fmt.Fprintln(out, "No paired switches. Add one with 'rev4ctl switches add <name> --id <id> --unit <unit>'")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tID\tUNIT\tSTATE\tLABEL")
		for _, name := range reg.Names() {
			sw := reg.Switches[name]
			state := sw.LastState
			if state == "" {
				state = "-"
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", name, sw.ID, sw.Unit, state, sw.Label)
		}
		return tw.Flush()
	},
}

var switchesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Pair a switch under a name",
	Long: `Store an id/unit address under a name. An existing switch with the
same name is replaced.`,
	Example: `  rev4ctl switches add lamp --id 5 --unit 2 --label "Desk lamp"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		sw, err := reg.AddSwitch(args[0], switchLabel, switchID, switchUnit)
		if err != nil {
			return err
		}
		if err := saveRegistry(reg); err != nil {
			return fmt.Errorf("failed to save registry: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Paired %s (id %d unit %d)\n", ui.SuccessMarker, args[0], sw.ID, sw.Unit)
		return nil
	},
}

func init() {
	switchesAddCmd.Flags().IntVarP(&switchID, "id", "i", 0, "Remote id (0-63)")
	switchesAddCmd.Flags().IntVarP(&switchUnit, "unit", "u", 0, "Switch unit (0-15)")
	switchesAddCmd.Flags().StringVar(&switchLabel, "label", "", "Free-form description")
	_ = switchesAddCmd.MarkFlagRequired("id")
	_ = switchesAddCmd.MarkFlagRequired("unit")
}

var switchesRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Forget a paired switch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		name := args[0]
		sw := reg.GetSwitch(name)
		if sw == nil {
			return fmt.Errorf("no switch named %q in the registry", name)
		}

		if !switchYes && !ui.ConfirmRemoveSwitch(cmd.InOrStdin(), cmd.OutOrStdout(), ui.GetTerminalWidth(), name, sw.ID, sw.Unit) {
			return nil
		}

		reg.RemoveSwitch(name)
		if err := saveRegistry(reg); err != nil {
			return fmt.Errorf("failed to save registry: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Removed %s\n", ui.SuccessMarker, name)
		return nil
	},
}

func init() {
	switchesRemoveCmd.Flags().BoolVarP(&switchYes, "yes", "y", false, "Skip the confirmation prompt")
}
