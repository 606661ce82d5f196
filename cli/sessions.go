package cli

import (
	"encoding/json"

	"github.com/absmach/fusion/coordinator"
	"github.com/absmach/fusion/pkg/sdk"
	"github.com/spf13/cobra"
)

var (
	defOffset uint64 = 0
	defLimit  uint64 = 10
)

var fsdk sdk.SDK

func SetFusionSDK(s sdk.SDK) {
	fsdk = s
}

func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions [create|view|list|join|advance|submit|aggregate|abort]",
		Short: "Sessions manager",
		Long:  `Create, view, list, join, advance, submit to, aggregate and abort aggregation sessions.`,
	}

	createCmd := &cobra.Command{
		Use:   "create <name> <creator> <config_json>",
		Short: "Create session",
		Long: `Create an aggregation session from a JSON config.

Examples:
  # Open a round for at least three participants with a share threshold of two
  fusion-cli sessions create mnist-round-12 operator '{"min_participants":3,"threshold":2,"max_update_age":3600000000000,"weight_scheme":{"kind":"uniform"}}'`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 3 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			req := sdk.SessionRequest{
				Name:    args[0],
				Creator: args[1],
			}
			if err := json.Unmarshal([]byte(args[2]), &req.Config); err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			s, err := fsdk.CreateSession(req)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view <id>",
		Short: "View session",
		Long:  `View session.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			s, err := fsdk.GetSession(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		Long:  `List sessions.`,
		Run: func(cmd *cobra.Command, args []string) {
			page, err := fsdk.ListSessions(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	joinCmd := &cobra.Command{
		Use:   "join <id> <participant_id>",
		Short: "Join session",
		Long:  `Enroll a participant into a session.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			s, err := fsdk.AddParticipant(args[0], args[1])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	advanceCmd := &cobra.Command{
		Use:   "advance <id>",
		Short: "Advance session",
		Long:  `Drive the session one phase forward.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			s, err := fsdk.AdvanceSession(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	submitCmd := &cobra.Command{
		Use:   "submit <id> <submission_json>",
		Short: "Submit update",
		Long: `Submit a participant model update.

Examples:
  fusion-cli sessions submit b1d10738-c5d7-4ff1-8f4d-b9328ce6f040 '{"participant_id":"client-7","payload":"AACAPw==","data_size":1200,"proof":"cHJvb2Y=","shares":[{"recipient":"client-8","encrypted_share":"AQ==","nonce":"Ag=="}]}'`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			var sub coordinator.Submission
			if err := json.Unmarshal([]byte(args[1]), &sub); err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			s, err := fsdk.SubmitUpdate(args[0], sub)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	aggregateCmd := &cobra.Command{
		Use:   "aggregate <id>",
		Short: "Aggregate session",
		Long:  `Combine all submitted updates into the next model version.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			m, err := fsdk.Aggregate(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, m)
		},
	}

	abortCmd := &cobra.Command{
		Use:   "abort <id> [reason]",
		Short: "Abort session",
		Long:  `Abandon a session.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 || len(args) > 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			reason := ""
			if len(args) == 2 {
				reason = args[1]
			}

			s, err := fsdk.AbortSession(args[0], reason)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	cmd.AddCommand(createCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(listCmd)
	cmd.AddCommand(joinCmd)
	cmd.AddCommand(advanceCmd)
	cmd.AddCommand(submitCmd)
	cmd.AddCommand(aggregateCmd)
	cmd.AddCommand(abortCmd)

	cmd.PersistentFlags().Uint64VarP(
		&defOffset,
		"offset",
		"o",
		defOffset,
		"Offset",
	)

	cmd.PersistentFlags().Uint64VarP(
		&defLimit,
		"limit",
		"l",
		defLimit,
		"Limit",
	)

	return cmd
}
