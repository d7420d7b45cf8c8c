package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/store"
)

var tplFlags struct {
	name      string
	subject   string
	body      string
	channel   string
	highlight string
}

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"t"},
	Short:   "Manage outreach templates",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return a.openStores(cmd.Context())
	},
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ts := a.templates.Templates()
		if len(ts) == 0 {
			fmt.Fprintln(a.out, "No templates. Run 'skout templates seed' to add the defaults.")
			return nil
		}
		printTemplates(a.out, ts)
		return nil
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <number>",
	Short: "Print one template in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := pickTemplate(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s (%s)\n", t.Name, t.Channel)
		if t.Subject != "" {
			fmt.Fprintf(a.out, "Subject: %s\n", t.Subject)
		}
		fmt.Fprintf(a.out, "\n%s\n", t.Body)
		if t.HighlightURL != "" {
			fmt.Fprintf(a.out, "\nHighlights: %s\n", t.HighlightURL)
		}
		return nil
	},
}

var templatesSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Add the default templates if you have none",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := a.templates.EnsureDefaults(cmd.Context())
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintln(a.out, "Templates already present; nothing seeded.")
			return nil
		}
		fmt.Fprintf(a.out, "Added %d default templates.\n", n)
		return nil
	},
}

var templatesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a template",
	Long: "Create a template. The body may use these placeholders: " +
		strings.Join(store.Placeholders(), ", ") + ".",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := a.templates.Save(cmd.Context(), model.Template{
			Name:         tplFlags.name,
			Subject:      tplFlags.subject,
			Body:         tplFlags.body,
			Channel:      tplFlags.channel,
			HighlightURL: tplFlags.highlight,
		})
		var ve *store.ValidationError
		if errors.As(err, &ve) {
			return ve
		}
		fmt.Fprintf(a.out, "Added %q.\n", t.Name)
		return err
	},
}

var templatesEditCmd = &cobra.Command{
	Use:   "edit <number>",
	Short: "Change a template; unset flags keep their current value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := pickTemplate(args[0])
		if err != nil {
			return err
		}
		f := cmd.Flags()
		if f.Changed("name") {
			t.Name = tplFlags.name
		}
		if f.Changed("subject") {
			t.Subject = tplFlags.subject
		}
		if f.Changed("body") {
			t.Body = tplFlags.body
		}
		if f.Changed("channel") {
			t.Channel = tplFlags.channel
		}
		if f.Changed("highlight") {
			t.HighlightURL = tplFlags.highlight
		}
		if _, err := a.templates.Update(cmd.Context(), t); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Updated %q.\n", t.Name)
		return nil
	},
}

var templatesDeleteCmd = &cobra.Command{
	Use:   "delete <number>",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := pickTemplate(args[0])
		if err != nil {
			return err
		}
		if _, err := a.templates.Delete(cmd.Context(), t.ClientID); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted %q.\n", t.Name)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{templatesAddCmd, templatesEditCmd} {
		c.Flags().StringVar(&tplFlags.name, "name", "", "template name")
		c.Flags().StringVar(&tplFlags.subject, "subject", "", "email subject line")
		c.Flags().StringVar(&tplFlags.body, "body", "", "message body")
		c.Flags().StringVar(&tplFlags.channel, "channel", "", "email or text (default email)")
		c.Flags().StringVar(&tplFlags.highlight, "highlight", "", "highlight video URL")
	}
	_ = templatesAddCmd.MarkFlagRequired("name")
	_ = templatesAddCmd.MarkFlagRequired("body")

	templatesCmd.AddCommand(templatesListCmd, templatesShowCmd, templatesSeedCmd, templatesAddCmd, templatesEditCmd, templatesDeleteCmd)
}

func pickTemplate(arg string) (model.Template, error) {
	ts := a.templates.Templates()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(ts) {
		return model.Template{}, fmt.Errorf("no template number %s", arg)
	}
	return ts[n-1], nil
}
