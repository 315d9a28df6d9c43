package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"blockgen/internal/pwm"
)

var pwmCmd = &cobra.Command{
	Use:   "pwm FREQUENCY RESOLUTION",
	Short: "Check a PWM frequency/resolution pair against a board's clock",
	Args:  cobra.ExactArgs(2),
	RunE:  runPWM,
}

func init() {
	pwmCmd.Flags().String("board", "esp32dev", "board id")
}

func runPWM(cmd *cobra.Command, args []string) error {
	boardID, err := cmd.Flags().GetString("board")
	if err != nil {
		return fmt.Errorf("failed to get board flag: %w", err)
	}
	freq, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid frequency %q: %w", args[0], err)
	}
	res, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid resolution %q: %w", args[1], err)
	}
	_, catalog, err := loadCatalog(cmd)
	if err != nil {
		return err
	}
	board, err := catalog.Lookup(boardID)
	if err != nil {
		return err
	}
	renderValidation(cmd.OutOrStdout(), board.ID, pwm.Validate(freq, res, pwm.LimitsOf(board.PWM)))
	return nil
}

func renderValidation(out io.Writer, boardID string, v pwm.Validation) {
	status := color.New(color.FgGreen).Sprint("ok")
	if v.Adjusted {
		status = color.New(color.FgYellow).Sprint("adjusted")
	}
	fmt.Fprintf(out, "%s: %s\n", boardID, status)
	fmt.Fprintf(out, "  frequency:  %d Hz\n", v.Frequency)
	fmt.Fprintf(out, "  resolution: %d-bit\n", v.Resolution)
	fmt.Fprintf(out, "  %s\n", v.Message)
}
