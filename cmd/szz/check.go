package main

import (
	"fmt"
	"os/exec"

	"github.com/agusespa/szz/internal/git"
	"github.com/spf13/cobra"
)

var checkSrcML string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the required external tools are installed",
	Long: `Check that git ` + git.MinVersion + ` or newer is on the PATH. The srcml binary is
only needed when structural_parser is srcml; its absence is reported but
does not fail the check.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkSrcML, "srcml", "srcml", "srcML binary to look for")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	gitVersion, err := git.CheckVersion(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "git    FAIL  %v\n", err)
		return err
	}
	fmt.Fprintf(out, "git    OK    %s\n", gitVersion)

	if path, err := exec.LookPath(checkSrcML); err != nil {
		fmt.Fprintf(out, "srcml  MISS  %s not found (only needed with structural_parser: srcml)\n", checkSrcML)
	} else {
		fmt.Fprintf(out, "srcml  OK    %s\n", path)
	}
	return nil
}
