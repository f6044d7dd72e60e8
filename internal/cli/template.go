package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/macropower/draftkit/pkg/templatestore"
)

// NewTemplateCmd returns the template command.
func NewTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Catalog and border template management",
		Long: `Catalog and border template management.

Templates are drawing files stored in system.template_db under a kind
(catalog or border) and the name of the style that uses them.`,
	}

	cmd.AddCommand(NewTemplateAddCmd())
	cmd.AddCommand(NewTemplateListCmd())
	cmd.AddCommand(NewTemplateRemoveCmd())
	cmd.AddCommand(NewTemplateExportCmd())

	return cmd
}

func NewTemplateAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <kind> <file.dwg>",
		Short:   "Store a drawing as a template",
		Example: `  draftkit template add catalog ./templates/A1.dwg --name default`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cc *cobra.Command, args []string) error {
			var merr error

			flags := cc.Flags()
			name, err := flags.GetString("name")
			if err != nil {
				merr = multierror.Append(merr, err)
			}
			force, err := flags.GetBool("force")
			if err != nil {
				merr = multierror.Append(merr, err)
			}
			kind, err := templatestore.ParseKind(args[0])
			if err != nil {
				merr = multierror.Append(merr, err)
			}

			if merr != nil {
				return fmt.Errorf("%w: %w", ErrInvalidArgument, merr)
			}

			a, err := newApp(cc)
			if err != nil {
				return err
			}

			store, err := a.openTemplates()
			if err != nil {
				return err
			}
			defer store.Close()

			t, err := store.ImportFile(cmdContext(cc), kind, name, args[1], force)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Stored %s template %q (%d bytes).\n", t.Kind, t.Name, t.Size)

			return nil
		},
	}

	cmd.Flags().StringP("name", "n", "", "Style name (default the file name)")
	cmd.Flags().BoolP("force", "f", false, "Replace an existing template")

	return cmd
}

func NewTemplateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [kind]",
		Short: "List stored templates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cc *cobra.Command, args []string) error {
			var kind templatestore.Kind
			if len(args) == 1 {
				k, err := templatestore.ParseKind(args[0])
				if err != nil {
					return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
				}
				kind = k
			}

			a, err := newApp(cc)
			if err != nil {
				return err
			}

			store, err := a.openTemplates()
			if err != nil {
				return err
			}
			defer store.Close()

			ts, err := store.List(cmdContext(cc), kind)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tNAME\tSIZE\tSHA256\tUPDATED")
			for _, t := range ts {
				fmt.Fprintf(w, "%s\t%s\t%d\t%.12s\t%s\n", t.Kind, t.Name, t.Size, t.SHA256, t.UpdatedAt.Format("2006-01-02 15:04"))
			}

			return w.Flush()
		},
	}
}

func NewTemplateRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <kind> <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a stored template",
		Args:    cobra.ExactArgs(2),
		RunE: func(cc *cobra.Command, args []string) error {
			kind, err := templatestore.ParseKind(args[0])
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
			}

			a, err := newApp(cc)
			if err != nil {
				return err
			}

			store, err := a.openTemplates()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmdContext(cc), kind, args[1]); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Removed %s template %q.\n", kind, args[1])

			return nil
		},
	}
}

func NewTemplateExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <kind> <name> <dest.dwg>",
		Short: "Write a stored template to a file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cc *cobra.Command, args []string) error {
			kind, err := templatestore.ParseKind(args[0])
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
			}

			a, err := newApp(cc)
			if err != nil {
				return err
			}

			store, err := a.openTemplates()
			if err != nil {
				return err
			}
			defer store.Close()

			return store.Export(cmdContext(cc), kind, args[1], args[2])
		},
	}
}
