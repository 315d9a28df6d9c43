package platform

import (
	"fmt"
	"sort"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
)

// Override is a [boards.<id>] table. Unset fields inherit from Base.
type Override struct {
	Base              string         `toml:"base"`
	Name              string         `toml:"name"`
	Targets           []string       `toml:"targets"`
	DigitalPins       []string       `toml:"digital_pins"`
	AnalogPins        []string       `toml:"analog_pins"`
	InputOnly         []string       `toml:"input_only"`
	PWMPins           []string       `toml:"pwm_pins"`
	AnalogOutMax      *int64         `toml:"analog_out_max"`
	ClockCeiling      *int64         `toml:"clock_ceiling"`
	Channels          *int64         `toml:"channels"`
	ResolutionFloor   *int64         `toml:"resolution_floor"`
	MaxResolution     *int64         `toml:"max_resolution"`
	DefaultFrequency  *int64         `toml:"default_frequency"`
	DefaultResolution *int64         `toml:"default_resolution"`
	PreferredChannels map[string]int `toml:"preferred_channels"`
	FQBN              string         `toml:"fqbn"`
}

type boardsFile struct {
	Boards map[string]Override `toml:"boards"`
}

// LoadOverrides parses the [boards] tables of a TOML file.
func LoadOverrides(path string) (map[string]Override, error) {
	var cfg boardsFile
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("boards") || cfg.Boards == nil {
		return map[string]Override{}, nil
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: unknown board keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg.Boards, nil
}

// Apply resolves overrides against the catalog, in id order so that a board
// may be based on another override only if that id sorts first.
func (c *Catalog) Apply(overrides map[string]Override) error {
	ids := make([]string, 0, len(overrides))
	for id := range overrides {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		b, err := overrides[id].resolve(c, id)
		if err != nil {
			return err
		}
		if err := c.Add(b); err != nil {
			return err
		}
	}
	return nil
}

func (o Override) resolve(c *Catalog, id string) (Board, error) {
	baseID := strings.TrimSpace(o.Base)
	if baseID == "" {
		baseID = id
	}
	b, err := c.Lookup(baseID)
	if err != nil {
		return Board{}, fmt.Errorf("board %s: %w", id, err)
	}
	b.ID = id
	if o.Name != "" {
		b.Name = o.Name
	}
	if o.FQBN != "" {
		b.FQBN = o.FQBN
	}
	if len(o.Targets) > 0 {
		b.Targets = b.Targets[:0]
		for _, t := range o.Targets {
			b.Targets = append(b.Targets, Target(strings.ToLower(strings.TrimSpace(t))))
		}
	}
	if o.DigitalPins != nil {
		b.DigitalPins = o.DigitalPins
	}
	if o.AnalogPins != nil {
		b.AnalogPins = o.AnalogPins
	}
	if o.InputOnly != nil {
		b.InputOnly = o.InputOnly
	}
	if o.PWMPins != nil {
		b.PWMPins = o.PWMPins
	}
	if o.PreferredChannels != nil {
		b.PWM.Preferred = o.PreferredChannels
	}
	if o.ClockCeiling != nil {
		v, err := safecast.Conv[uint64](*o.ClockCeiling)
		if err != nil {
			return Board{}, fmt.Errorf("board %s: clock_ceiling: %w", id, err)
		}
		b.PWM.ClockCeiling = v
	}
	ints := []struct {
		name string
		src  *int64
		dst  *int
	}{
		{"analog_out_max", o.AnalogOutMax, &b.AnalogOutMax},
		{"channels", o.Channels, &b.PWM.Channels},
		{"resolution_floor", o.ResolutionFloor, &b.PWM.ResolutionFloor},
		{"max_resolution", o.MaxResolution, &b.PWM.MaxResolution},
		{"default_frequency", o.DefaultFrequency, &b.PWM.DefaultFrequency},
		{"default_resolution", o.DefaultResolution, &b.PWM.DefaultResolution},
	}
	for _, f := range ints {
		if f.src == nil {
			continue
		}
		v, err := safecast.Conv[int](*f.src)
		if err != nil {
			return Board{}, fmt.Errorf("board %s: %s: %w", id, f.name, err)
		}
		*f.dst = v
	}
	return b, nil
}
