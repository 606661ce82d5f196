package cli

import (
	"encoding/base64"
	"strconv"

	"github.com/spf13/cobra"
)

func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models [seed|view|list]",
		Short: "Models manager",
		Long:  `Seed, view and list global model versions.`,
	}

	seedCmd := &cobra.Command{
		Use:   "seed <parameters_base64>",
		Short: "Seed model",
		Long: `Install the genesis model version from base64-encoded parameters.

Examples:
  fusion-cli models seed "$(base64 -w0 initial-weights.bin)"`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			params, err := base64.StdEncoding.DecodeString(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			m, err := fsdk.SeedModel(params)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, m)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view <version>",
		Short: "View model version",
		Long:  `View model version.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			version, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			m, err := fsdk.GetModel(version)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, m)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List model versions",
		Long:  `List retained model versions.`,
		Run: func(cmd *cobra.Command, args []string) {
			page, err := fsdk.ListModels(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	cmd.AddCommand(seedCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(listCmd)

	return cmd
}
