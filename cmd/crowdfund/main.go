// Command crowdfund is a client for the campaign program: it derives
// campaign addresses, builds instruction bytes, inspects raw records and
// submits create-campaign invocations over HTTP or AMQP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-program/internal/logging"
	"github.com/unclebandit/crowdfund-program/internal/model"
)

var (
	logger *zap.Logger

	logLevel  string
	programID string
)

var rootCmd = &cobra.Command{
	Use:           "crowdfund",
	Short:         "Client for the crowdfund campaign program",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(logLevel)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&programID, "program", os.Getenv("PROGRAM_ID"), "program identity (hex)")

	rootCmd.AddCommand(deriveCmd, encodeCmd, decodeRecordCmd, createCmd, enqueueCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "crowdfund:", err)
		os.Exit(1)
	}
}

func program() (model.Address, error) {
	if programID == "" {
		return model.Address{}, fmt.Errorf("--program or PROGRAM_ID is required")
	}
	addr, err := model.ParseAddress(programID)
	if err != nil {
		return model.Address{}, fmt.Errorf("--program: %w", err)
	}
	return addr, nil
}
