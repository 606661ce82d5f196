package main

import (
	"log"

	"github.com/absmach/fusion"
	"github.com/absmach/fusion/cli"
	"github.com/absmach/fusion/fusiond"
	"github.com/absmach/fusion/pkg/sdk"
	"github.com/spf13/cobra"
)

const configPath = "fusion.toml"

func main() {
	coordinatorURL := fusiond.DefCoordinatorURL
	tlsVerification := fusiond.DefTLSVerification

	// A provisioned fusion.toml overrides the built-in defaults; flags
	// override both.
	if cfg, err := fusion.LoadConfig(configPath); err == nil {
		if cfg.Coordinator.URL != "" {
			coordinatorURL = cfg.Coordinator.URL
		}
		tlsVerification = cfg.Coordinator.TLSVerification
	}

	rootCmd := &cobra.Command{
		Use:   "fusion-cli",
		Short: "Fusion CLI",
		Long:  `Fusion CLI is a command line interface for driving secure aggregation sessions.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			sdkConf := sdk.Config{
				CoordinatorURL:  coordinatorURL,
				TLSVerification: tlsVerification,
			}
			cli.SetFusionSDK(sdk.NewSDK(sdkConf))
		},
	}

	rootCmd.PersistentFlags().StringVarP(
		&coordinatorURL,
		"coordinator-url",
		"c",
		coordinatorURL,
		"Coordinator URL",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&cli.RawOutput,
		"raw",
		"r",
		cli.RawOutput,
		"Enables raw output mode for JSON",
	)

	rootCmd.AddCommand(cli.NewSessionsCmd())
	rootCmd.AddCommand(cli.NewModelsCmd())
	rootCmd.AddCommand(cli.NewProvisionCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
