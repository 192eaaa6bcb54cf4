// Package cmd implements the courierplan control surface (spec.md §6.4): a
// single invocation accepting input source, output destination, priority,
// credentials, and verbosity, exiting non-zero on any batch failure or
// missing credentials. Wiring style (persistent flags, viper env binding,
// SilenceUsage/SilenceErrors) grounded on the teacher's cli/cmd/root.go.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var verbose bool

// NewRootCmd returns the root command for the courierplan CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "courierplan",
		Short:         "courierplan — delivery route clustering and sequencing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	viper.SetEnvPrefix("COURIERPLAN")
	viper.AutomaticEnv()

	root.AddCommand(newPlanCmd())
	return root
}
