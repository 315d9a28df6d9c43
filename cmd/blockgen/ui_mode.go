package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// switchMode is the value of the tri-state --ui and --color flags.
type switchMode string

const (
	modeAuto switchMode = "auto"
	modeOn   switchMode = "on"
	modeOff  switchMode = "off"
)

func readSwitchMode(flag, value string) (switchMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return modeAuto, nil
	case "on":
		return modeOn, nil
	case "off":
		return modeOff, nil
	default:
		return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
	}
}

func (m switchMode) enabled(f *os.File) bool {
	switch m {
	case modeOn:
		return true
	case modeOff:
		return false
	default:
		return isTerminal(f)
	}
}

// applyColorMode sets the global colour switch from --color.
func applyColorMode(cmd *cobra.Command) error {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	mode, err := readSwitchMode("color", value)
	if err != nil {
		return err
	}
	color.NoColor = !mode.enabled(os.Stderr)
	return nil
}

// shouldUseTUI decides on the progress view. Quiet runs and single
// workspaces never get one.
func shouldUseTUI(cmd *cobra.Command, files int) (bool, error) {
	root := cmd.Root().PersistentFlags()
	value, err := root.GetString("ui")
	if err != nil {
		return false, fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readSwitchMode("ui", value)
	if err != nil {
		return false, err
	}
	quiet, err := root.GetBool("quiet")
	if err != nil {
		return false, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if quiet || mode == modeOff {
		return false, nil
	}
	if mode == modeOn {
		return true, nil
	}
	return files > 1 && mode.enabled(os.Stdout), nil
}
