package cli

import (
	"fmt"
	"os"

	"github.com/ralt/pkgbuilder/internal/manifest"
	"github.com/ralt/pkgbuilder/internal/models"
	"github.com/ralt/pkgbuilder/internal/signer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	var publicKey string

	cmd := &cobra.Command{
		Use:   "verify <manifest> <manifest>",
		Short: "Compare two destination manifests",
		Long: `Compares two manifests written by 'build --manifest' and reports every
path that was added, removed or changed. With --public-key, the detached
signature (<manifest>.sig) of each manifest is checked first.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if publicKey != "" {
				if err := verifySignatures(publicKey, args); err != nil {
					return err
				}
			}

			a, err := manifest.ReadFile(args[0])
			if err != nil {
				return &models.PkgBuildError{Type: models.ErrFileOp, Err: err}
			}
			b, err := manifest.ReadFile(args[1])
			if err != nil {
				return &models.PkgBuildError{Type: models.ErrFileOp, Err: err}
			}

			diffs := manifest.Diff(a, b)
			for _, d := range diffs {
				fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			if len(diffs) > 0 {
				return fmt.Errorf("manifests differ in %d paths", len(diffs))
			}

			logrus.Infof("Manifests are identical (%d entries)", len(a.Entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&publicKey, "public-key", "", "Armored public key to check manifest signatures with")

	return cmd
}

func verifySignatures(keyPath string, manifests []string) error {
	pub, err := os.ReadFile(keyPath)
	if err != nil {
		return &models.PkgBuildError{Type: models.ErrSigning, Err: err}
	}

	for _, path := range manifests {
		data, err := os.ReadFile(path)
		if err != nil {
			return &models.PkgBuildError{Type: models.ErrFileOp, Err: err}
		}
		sig, err := os.ReadFile(path + ".sig")
		if err != nil {
			return &models.PkgBuildError{Type: models.ErrSigning, Package: path, Err: err}
		}
		if err := signer.Verify(pub, data, sig); err != nil {
			return &models.PkgBuildError{Type: models.ErrSigning, Package: path, Err: err}
		}
		logrus.Debugf("Signature OK: %s", path)
	}

	return nil
}
