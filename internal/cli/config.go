package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ralt/pkgbuilder/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ConfigName is the base name of the optional config file
const ConfigName = "pkgbuilder"

// EnvPrefix prefixes environment variables overriding flags
const EnvPrefix = "PKGBUILDER"

// loadConfig layers flags over environment over config file
func loadConfig(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, &models.PkgBuildError{
				Type: models.ErrInvalidConfig,
				Err:  fmt.Errorf("failed to read config: %w", err),
			}
		}
	}

	return v, nil
}

// buildConfigFrom reads the build command settings out of v
func buildConfigFrom(v *viper.Viper, args []string) models.BuildConfig {
	config := models.BuildConfig{
		RecipePath:          v.GetString("recipe"),
		DestDir:             v.GetString("dest"),
		Mode:                v.GetString("mode"),
		Python:              v.GetString("python"),
		NoBuild:             v.GetBool("no-build"),
		NoPackage:           v.GetBool("no-package"),
		SourceDateEpoch:     v.GetInt64("source-date-epoch"),
		ManifestPath:        v.GetString("manifest"),
		ManifestCompression: v.GetString("manifest-compression"),
		GPGKeyPath:          v.GetString("gpg-key"),
		GPGPassphrase:       v.GetString("gpg-passphrase"),
	}
	if len(args) > 0 {
		config.RecipePath = args[0]
	}
	return config
}
