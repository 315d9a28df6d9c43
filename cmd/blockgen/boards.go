package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"blockgen/internal/platform"
	"blockgen/internal/project"
)

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List known boards, including blockgen.toml overrides",
	Args:  cobra.NoArgs,
	RunE:  runBoards,
}

func init() {
	boardsCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	boardsCmd.Flags().String("target", "", "only boards supporting this target")
}

type boardJSON struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Targets           []string `json:"targets"`
	FQBN              string   `json:"fqbn,omitempty"`
	DigitalPins       []string `json:"digital_pins"`
	AnalogPins        []string `json:"analog_pins"`
	AnalogOut         [2]int   `json:"analog_out"`
	AnalogReadBits    int      `json:"analog_read_bits"`
	PWMKind           string   `json:"pwm_kind"`
	PWMChannels       int      `json:"pwm_channels,omitempty"`
	ClockCeiling      uint64   `json:"clock_ceiling,omitempty"`
	DefaultFrequency  int      `json:"default_frequency"`
	DefaultResolution int      `json:"default_resolution"`
}

func runBoards(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	targetID, err := cmd.Flags().GetString("target")
	if err != nil {
		return fmt.Errorf("failed to get target flag: %w", err)
	}
	_, catalog, err := loadCatalog(cmd)
	if err != nil {
		return err
	}
	var boards []platform.Board
	for _, b := range catalog.List() {
		if targetID == "" || b.Supports(platform.Target(strings.ToLower(targetID))) {
			boards = append(boards, b)
		}
	}

	switch strings.ToLower(format) {
	case "json":
		return renderBoardsJSON(cmd.OutOrStdout(), boards)
	case "pretty":
		return renderBoardsPretty(cmd.OutOrStdout(), boards)
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
}

// loadCatalog returns the builtin boards, the overrides of the nearest
// blockgen.toml and then those of --boards-file.
func loadCatalog(cmd *cobra.Command) (*project.Manifest, *platform.Catalog, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, nil, err
	}
	manifest, _, err := project.LoadManifest(wd)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := manifest.Catalog()
	if err != nil {
		return nil, nil, err
	}
	extra, err := cmd.Root().PersistentFlags().GetString("boards-file")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get boards-file flag: %w", err)
	}
	if extra != "" {
		overrides, err := platform.LoadOverrides(extra)
		if err != nil {
			return nil, nil, err
		}
		if err := catalog.Apply(overrides); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", extra, err)
		}
	}
	return manifest, catalog, nil
}

func targetNames(b platform.Board) []string {
	out := make([]string, len(b.Targets))
	for i, t := range b.Targets {
		out[i] = string(t)
	}
	return out
}

func renderBoardsPretty(out io.Writer, boards []platform.Board) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	head := color.New(color.Bold)
	fmt.Fprintln(tw, head.Sprint("ID")+"\t"+head.Sprint("NAME")+"\t"+head.Sprint("TARGETS")+"\t"+head.Sprint("PWM")+"\t"+head.Sprint("DEFAULT"))
	for _, b := range boards {
		pwm := string(b.PWM.Kind)
		if b.PWM.Channels > 0 {
			pwm += fmt.Sprintf(" (%d ch)", b.PWM.Channels)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d Hz / %d-bit\n",
			b.ID, b.Name, strings.Join(targetNames(b), ","), pwm, b.PWM.DefaultFrequency, b.PWM.DefaultResolution)
	}
	return tw.Flush()
}

func renderBoardsJSON(out io.Writer, boards []platform.Board) error {
	payload := make([]boardJSON, 0, len(boards))
	for _, b := range boards {
		payload = append(payload, boardJSON{
			ID:                b.ID,
			Name:              b.Name,
			Targets:           targetNames(b),
			FQBN:              b.FQBN,
			DigitalPins:       b.DigitalPins,
			AnalogPins:        b.AnalogPins,
			AnalogOut:         [2]int{b.AnalogOutMin, b.AnalogOutMax},
			AnalogReadBits:    b.AnalogReadBits,
			PWMKind:           string(b.PWM.Kind),
			PWMChannels:       b.PWM.Channels,
			ClockCeiling:      b.PWM.ClockCeiling,
			DefaultFrequency:  b.PWM.DefaultFrequency,
			DefaultResolution: b.PWM.DefaultResolution,
		})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
