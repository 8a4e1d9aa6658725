package cli

import (
	"bytes"
	"path/filepath"

	"github.com/ralt/pkgbuilder/internal/recipe"
	"github.com/ralt/pkgbuilder/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewSrcinfoCmd creates the srcinfo command
func NewSrcinfoCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "srcinfo [recipe]",
		Short: "Print the recipe metadata in .SRCINFO format",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rcp, err := loadRecipe(cmd.Context(), args)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := recipe.WriteSRCINFO(&buf, rcp); err != nil {
				return err
			}

			if !write {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}

			path := filepath.Join(rcp.StartDir(), recipe.SRCINFOFileName)
			if err := utils.WriteFile(path, buf.Bytes(), 0644); err != nil {
				return err
			}
			logrus.Infof("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write .SRCINFO next to the recipe instead of printing it")

	return cmd
}
