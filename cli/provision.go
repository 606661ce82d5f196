package cli

import (
	"errors"

	"github.com/absmach/fusion"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

const defConfigPath = "fusion.toml"

var errEmptyCoordinatorURL = errors.New("coordinator URL is required")

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision client config",
	Long:  `Interactively render the TOML client configuration for participants.`,
	Run: func(cmd *cobra.Command, args []string) {
		var cfg fusion.Config

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Coordinator URL").
					Placeholder("http://localhost:7070").
					Value(&cfg.Coordinator.URL),
				huh.NewConfirm().
					Title("Verify TLS certificates?").
					Value(&cfg.Coordinator.TLSVerification),
			),
			huh.NewGroup(
				huh.NewInput().
					Title("Participant ID").
					Value(&cfg.Participant.ID),
				huh.NewInput().
					Title("Participant key").
					EchoMode(huh.EchoModePassword).
					Value(&cfg.Participant.Key),
			),
			huh.NewGroup(
				huh.NewInput().
					Title("MQTT broker URL").
					Placeholder("tcp://localhost:1883").
					Value(&cfg.Broker.URL),
				huh.NewInput().
					Title("MQTT username").
					Value(&cfg.Broker.Username),
				huh.NewInput().
					Title("MQTT password").
					EchoMode(huh.EchoModePassword).
					Value(&cfg.Broker.Password),
			),
		)

		if err := form.Run(); err != nil {
			logErrorCmd(*cmd, err)

			return
		}

		if cfg.Coordinator.URL == "" {
			logErrorCmd(*cmd, errEmptyCoordinatorURL)

			return
		}

		if err := fusion.SaveConfig(defConfigPath, cfg); err != nil {
			logErrorCmd(*cmd, err)

			return
		}
		logSuccessCmd(*cmd, "Successfully created "+defConfigPath)

		logJSONCmd(*cmd, cfg)
	},
}

func NewProvisionCmd() *cobra.Command {
	return provisionCmd
}
