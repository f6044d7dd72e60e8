package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/macropower/draftkit/pkg/collate"
)

// NewCollateCmd returns the collate command.
func NewCollateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collate",
		Short: "Sort plotted files into subproject folders",
	}

	cmd.AddCommand(NewCollateSubprojectCmd())
	cmd.AddCommand(NewCollateGeneralCmd())

	return cmd
}

func NewCollateSubprojectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subproject <dir>",
		Short: "Move <sub>_<name> files into <dir>/<sub>/",
		Args:  cobra.ExactArgs(1),
		RunE: func(cc *cobra.Command, args []string) error {
			a, err := newApp(cc)
			if err != nil {
				return err
			}

			moved, err := collate.BySubproject(a.projectFile(args[0]))
			printTransfers(cc, "moved", moved)

			return err
		},
	}
}

func NewCollateGeneralCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "general <root> <mapping.yaml> [source]",
		Short: "Copy general drawings into every subproject that lists them",
		Long: `Copy general drawings into every subproject that lists them.

The mapping file maps subproject folder names under root to the drawing
numbers they need. A drawing number matches files in source named
<number>_<anything>. Source defaults to <root>/general.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cc *cobra.Command, args []string) error {
			a, err := newApp(cc)
			if err != nil {
				return err
			}

			root := a.projectFile(args[0])
			source := filepath.Join(root, "general")
			if len(args) == 3 {
				source = a.projectFile(args[2])
			}

			copied, err := collate.CopyGeneral(cmdContext(cc), root, a.projectFile(args[1]), source)
			printTransfers(cc, "copied", copied)

			return err
		},
	}
}

func printTransfers(cc *cobra.Command, verb string, ts []collate.Transfer) {
	for _, t := range ts {
		cc.Printf("%s -> %s\n", t.Src, t.Dst)
	}
	cc.Printf("%s %d files\n", verb, len(ts))
}
