package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "coach",
		Short:         "Manage your coaching profile and generate plans",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "path to a YAML config file (default $COACH_CONFIG)")
	pf.StringVar(&a.dataDir, "data-dir", "", "directory holding the profile documents")
	pf.StringVar(&a.remoteURL, "remote", "", "base URL of the remote API (default $COACH_REMOTE_URL)")
	pf.BoolVar(&a.offline, "offline", false, "never contact the remote API")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")
	pf.BoolVar(&a.raw, "raw", false, "print Markdown without terminal rendering")

	root.AddCommand(
		newProfileCmd(a),
		newAdvancedCmd(a),
		newTargetsCmd(a),
		newOnboardingCmd(a),
		newContextCmd(a),
		newPlanCmd(a),
		newSyncCmd(a),
	)
	return root
}
