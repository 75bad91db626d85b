package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unclebandit/crowdfund-program/internal/codec"
)

var decodeRecordCmd = &cobra.Command{
	Use:   "decode-record [hex|-]",
	Short: "Decode a raw campaign account into JSON",
	Long: `Decodes the fixed-size campaign record. The record is read as hex from
the argument, or from stdin when the argument is "-" or missing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecodeRecord,
}

func runDecodeRecord(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) == 0 || args[0] == "-" {
		in, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(in)
	} else {
		text = args[0]
	}

	raw, err := hex.DecodeString(strings.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("record is not hex: %w", err)
	}
	record, err := codec.Decode(raw)
	if err != nil {
		return err
	}
	return printJSON(cmd, record)
}
