package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unclebandit/crowdfund-program/internal/address"
	"github.com/unclebandit/crowdfund-program/internal/instruction"
	"github.com/unclebandit/crowdfund-program/internal/model"
)

var deriveCmd = &cobra.Command{
	Use:   "derive <creator>",
	Short: "Print the campaign address and bump for a creator",
	Args:  cobra.ExactArgs(1),
	RunE:  runDerive,
}

func runDerive(cmd *cobra.Command, args []string) error {
	prog, err := program()
	if err != nil {
		return err
	}
	creator, err := model.ParseAddress(args[0])
	if err != nil {
		return fmt.Errorf("creator: %w", err)
	}
	addr, bump, err := address.ProgramDeriver{}.Derive([]byte(address.CampaignSeed), creator, prog)
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]any{
		"address": addr,
		"bump":    bump,
	})
}

var (
	campaignName string
	goalAmount   uint64
	deadline     int64
)

func addPayloadFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&campaignName, "name", "", "campaign name")
	cmd.Flags().Uint64Var(&goalAmount, "goal", 0, "goal amount in lamports")
	cmd.Flags().Int64Var(&deadline, "deadline", 0, "deadline as unix seconds")
	cmd.MarkFlagRequired("name")
}

func payload() model.CreateCampaignPayload {
	return model.CreateCampaignPayload{
		Name:       campaignName,
		GoalAmount: goalAmount,
		Deadline:   deadline,
	}
}

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Print base64 create-campaign instruction bytes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data := instruction.EncodeCreateCampaign(payload())
		fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(data))
		return nil
	},
}

func init() {
	addPayloadFlags(encodeCmd)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
