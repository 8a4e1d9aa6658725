package main

import (
	"os"

	"github.com/ralt/pkgbuilder/internal/cli"
	"github.com/ralt/pkgbuilder/internal/models"
	"github.com/sirupsen/logrus"
)

func main() {
	// Setup logging format
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(models.ExitCode(err))
	}
}
