package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/export"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
)

var (
	contactsSchool string
	exportOutput   string
	contactedUndo  bool
)

var contactsCmd = &cobra.Command{
	Use:     "contacts",
	Aliases: []string{"c"},
	Short:   "Manage saved coaches",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return a.openStores(cmd.Context())
	},
}

var contactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved coaches",
	RunE: func(cmd *cobra.Command, args []string) error {
		cs := a.contacts.BySchool(contactsSchool)
		if len(cs) == 0 {
			fmt.Fprintln(a.out, "No saved coaches.")
			return nil
		}
		printContacts(a.out, cs)
		return nil
	},
}

var contactsSchoolsCmd = &cobra.Command{
	Use:   "schools",
	Short: "List schools with saved coaches",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, s := range a.contacts.Schools() {
			fmt.Fprintln(a.out, s)
		}
		return nil
	},
}

var contactsRemoveCmd = &cobra.Command{
	Use:   "remove <numbers>",
	Short: "Remove saved coaches by their number in 'contacts list'",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		picked, err := pickContacts(args[0])
		if err != nil {
			return err
		}
		n, err := a.contacts.RemoveMultiple(cmd.Context(), picked)
		fmt.Fprintf(a.out, "Removed %d contact(s).\n", n)
		return err
	},
}

var contactsContactedCmd = &cobra.Command{
	Use:   "contacted <numbers>",
	Short: "Mark saved coaches as contacted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		picked, err := pickContacts(args[0])
		if err != nil {
			return err
		}
		var errs []error
		for _, c := range picked {
			if _, err := a.contacts.SetContacted(cmd.Context(), c, !contactedUndo); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
			}
		}
		return errors.Join(errs...)
	},
}

var contactsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved coaches as CSV",
	Long: `Write saved coaches as CSV. With --school the default file name is
{school}_{sport}_coaches.csv; use -o - for stdout.`,
	RunE: runContactsExport,
}

func init() {
	contactsCmd.PersistentFlags().StringVar(&contactsSchool, "school", "", "only coaches at this school")
	contactsContactedCmd.Flags().BoolVar(&contactedUndo, "undo", false, "clear the contacted flag instead")
	contactsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file")

	contactsCmd.AddCommand(contactsListCmd, contactsSchoolsCmd, contactsRemoveCmd, contactsContactedCmd, contactsExportCmd)
}

// pickContacts resolves numbers against the current 'contacts list' view.
func pickContacts(spec string) ([]model.SavedCoach, error) {
	cs := a.contacts.BySchool(contactsSchool)
	if len(cs) == 0 {
		return nil, errors.New("no saved coaches")
	}
	idx, err := parseIndices(spec, len(cs))
	if err != nil {
		return nil, err
	}
	out := make([]model.SavedCoach, 0, len(idx))
	for _, i := range idx {
		out = append(out, cs[i])
	}
	return out, nil
}

func runContactsExport(cmd *cobra.Command, args []string) error {
	cs := a.contacts.BySchool(contactsSchool)
	if len(cs) == 0 {
		return export.ErrEmpty
	}

	path := exportOutput
	if path == "" {
		path = "skout_contacts.csv"
		if contactsSchool != "" {
			path = export.Filename(cs[0].School, cs[0].Sport)
		}
	}
	if path == "-" {
		return a.contacts.Export(a.out, contactsSchool)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := a.contacts.Export(f, contactsSchool); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported %d coach(es) to %s\n", len(cs), path)
	return nil
}
