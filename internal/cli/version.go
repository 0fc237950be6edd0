package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gadrian78/he-tokens-snapshot/internal/version"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var versionCheck bool

// versionCmd prints the build version, optionally checking GitHub for a
// newer release.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the hivesnap version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := formatter.Println("hivesnap " + version.String()); err != nil {
			return err
		}

		if !versionCheck {
			return nil
		}

		client := version.NewClient(nil)
		release, err := client.LatestRelease(cmd.Context(), version.RepoOwner, version.RepoName)
		if err != nil {
			return fmt.Errorf("checking latest release: %w", err)
		}

		if version.IsNewer(version.Version, release.TagName) {
			return formatter.Println("newer release available: " + release.TagName)
		}
		return formatter.Println("up to date")
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check GitHub for a newer release")
	rootCmd.AddCommand(versionCmd)
}
