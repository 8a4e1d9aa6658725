package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ralt/pkgbuilder/internal/models"
	"github.com/ralt/pkgbuilder/internal/recipe"
	"github.com/ralt/pkgbuilder/internal/scanner"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// recipeInfo is the printable view of a recipe
type recipeInfo struct {
	Name          string   `json:"name" yaml:"name"`
	Version       string   `json:"version" yaml:"version"`
	Release       int      `json:"release" yaml:"release"`
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
	URL           string   `json:"url,omitempty" yaml:"url,omitempty"`
	License       []string `json:"license,omitempty" yaml:"license,omitempty"`
	Architectures []string `json:"arch" yaml:"arch"`
	Depends       []string `json:"depends,omitempty" yaml:"depends,omitempty"`
	MakeDepends   []string `json:"makedepends,omitempty" yaml:"makedepends,omitempty"`
}

func newRecipeInfo(rcp *models.Recipe) recipeInfo {
	info := recipeInfo{
		Name:        rcp.Name,
		Version:     rcp.Version,
		Release:     rcp.Release,
		Description: rcp.Description,
		URL:         rcp.URL,
		License:     rcp.License,
	}
	for _, a := range rcp.Architectures {
		info.Architectures = append(info.Architectures, string(a))
	}
	for _, d := range rcp.Depends {
		info.Depends = append(info.Depends, d.String())
	}
	for _, d := range rcp.MakeDepends {
		info.MakeDepends = append(info.MakeDepends, d.String())
	}
	return info
}

// NewInfoCmd creates the info command
func NewInfoCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "info [recipe]",
		Short: "Print the recipe metadata",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rcp, err := loadRecipe(cmd.Context(), args)
			if err != nil {
				return err
			}
			return printInfo(cmd.OutOrStdout(), rcp, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json, yaml")

	return cmd
}

func printInfo(w io.Writer, rcp *models.Recipe, format string) error {
	info := newRecipeInfo(rcp)

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(info); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		fields := []struct{ key, value string }{
			{"Name", info.Name},
			{"Version", rcp.FullVersion()},
			{"Description", info.Description},
			{"Architecture", strings.Join(info.Architectures, " ")},
			{"URL", info.URL},
			{"Licenses", strings.Join(info.License, " ")},
			{"Depends On", models.JoinDependencies(rcp.Depends)},
			{"Make Deps", models.JoinDependencies(rcp.MakeDepends)},
		}
		for _, f := range fields {
			value := f.value
			if value == "" {
				value = "None"
			}
			if _, err := fmt.Fprintf(w, "%-15s: %s\n", f.key, value); err != nil {
				return err
			}
		}
		return nil
	default:
		return &models.PkgBuildError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("unknown format %q", format),
		}
	}
}

// loadRecipe locates and parses the recipe named by args
func loadRecipe(ctx context.Context, args []string) (*models.Recipe, error) {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}

	located, err := scanner.Locate(path)
	if err != nil {
		return nil, &models.PkgBuildError{
			Type: models.ErrFileOp,
			Err:  fmt.Errorf("failed to locate recipe: %w", err),
		}
	}

	return recipe.ParseFile(ctx, located)
}
