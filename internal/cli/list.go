package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ralt/pkgbuilder/internal/models"
	"github.com/ralt/pkgbuilder/internal/recipe"
	"github.com/ralt/pkgbuilder/internal/scanner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [dir]",
		Short: "List the recipes found below a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runList(cmd.Context(), cmd.OutOrStdout(), scanner.NewFileSystemScanner(), dir)
		},
	}
}

func runList(ctx context.Context, w io.Writer, sc scanner.Scanner, dir string) error {
	found, err := sc.Scan(ctx, dir)
	if err != nil {
		return &models.PkgBuildError{
			Type: models.ErrFileOp,
			Err:  err,
		}
	}

	for _, s := range found {
		rcp, err := readScanned(ctx, s)
		if err != nil {
			logrus.Warnf("Failed to parse %s: %v", s.Path, err)
			continue
		}
		if _, err := fmt.Fprintf(w, "%s %s\t%s\n", rcp.Name, rcp.FullVersion(), s.Path); err != nil {
			return err
		}
	}

	return nil
}

func readScanned(ctx context.Context, s scanner.ScannedRecipe) (*models.Recipe, error) {
	switch s.Type {
	case scanner.TypePKGBUILD:
		return recipe.ParseFile(ctx, s.Path)
	case scanner.TypeSRCINFO:
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return recipe.ParseSRCINFO(f)
	default:
		return nil, fmt.Errorf("unknown recipe type: %s", s.Type)
	}
}
