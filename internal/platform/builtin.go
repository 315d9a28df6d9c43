package platform

import (
	"fmt"
	"strconv"
)

func numbered(prefix string, from, to int) []string {
	out := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, prefix+strconv.Itoa(i))
	}
	return out
}

func esp32DevKit() Board {
	return Board{
		ID:      "esp32dev",
		Name:    "ESP32 DevKit V1",
		Targets: []Target{TargetArduino, TargetMicroPython},
		DigitalPins: []string{
			"0", "2", "4", "5", "12", "13", "14", "15", "16", "17", "18", "19",
			"21", "22", "23", "25", "26", "27", "32", "33", "34", "35", "36", "39",
		},
		AnalogPins:     []string{"32", "33", "34", "35", "36", "39", "0", "2", "4", "12", "13", "14", "15", "25", "26", "27"},
		InputOnly:      []string{"34", "35", "36", "39"},
		AnalogOutMin:   0,
		AnalogOutMax:   255,
		AnalogReadBits: 12,
		LEDPin:         "2",
		FQBN:           "esp32:esp32:esp32",
		PWM: PWMSpec{
			Kind:              PWMLedc,
			ClockCeiling:      80_000_000,
			Channels:          16,
			ChannelsPerTimer:  2,
			Timers:            4,
			ResolutionFloor:   8,
			MaxResolution:     16,
			DefaultFrequency:  5000,
			DefaultResolution: 8,
			Preferred:         map[string]int{"2": 0},
		},
	}
}

func esp32S3() Board {
	b := Board{
		ID:             "esp32s3",
		Name:           "ESP32-S3 DevKitC-1",
		Targets:        []Target{TargetArduino, TargetMicroPython},
		DigitalPins:    numbered("", 0, 21),
		AnalogPins:     numbered("", 1, 20),
		AnalogOutMin:   0,
		AnalogOutMax:   255,
		AnalogReadBits: 12,
		LEDPin:         "48",
		FQBN:           "esp32:esp32:esp32s3",
		PWM: PWMSpec{
			Kind:              PWMLedc,
			ClockCeiling:      80_000_000,
			Channels:          8,
			ChannelsPerTimer:  2,
			Timers:            4,
			ResolutionFloor:   8,
			MaxResolution:     14,
			DefaultFrequency:  5000,
			DefaultResolution: 8,
		},
	}
	b.DigitalPins = append(b.DigitalPins, numbered("", 35, 48)...)
	return b
}

func arduinoUno() Board {
	return Board{
		ID:             "uno",
		Name:           "Arduino Uno",
		Targets:        []Target{TargetArduino},
		DigitalPins:    numbered("", 0, 13),
		AnalogPins:     numbered("A", 0, 5),
		PWMPins:        []string{"3", "5", "6", "9", "10", "11"},
		AnalogOutMin:   0,
		AnalogOutMax:   255,
		AnalogReadBits: 10,
		LEDPin:         "13",
		FQBN:           "arduino:avr:uno",
		PWM: PWMSpec{
			Kind:              PWMNative,
			ResolutionFloor:   8,
			MaxResolution:     8,
			DefaultFrequency:  490,
			DefaultResolution: 8,
		},
	}
}

// RP2040 slices: GPIO n -> slice (n>>1)&7, channel A/B by n&1.
func rp2040Pico() Board {
	pins := numbered("", 0, 28)
	preferred := make(map[string]int, len(pins))
	for i := 0; i <= 28; i++ {
		preferred[strconv.Itoa(i)] = ((i>>1)&7)*2 + i&1
	}
	return Board{
		ID:             "pico",
		Name:           "Raspberry Pi Pico",
		Targets:        []Target{TargetMicroPython},
		DigitalPins:    pins,
		AnalogPins:     []string{"26", "27", "28"},
		AnalogOutMin:   0,
		AnalogOutMax:   255,
		AnalogReadBits: 16,
		LEDPin:         "25",
		PWM: PWMSpec{
			Kind:              PWMSlice,
			ClockCeiling:      125_000_000,
			Channels:          16,
			ChannelsPerTimer:  2,
			Timers:            8,
			ResolutionFloor:   8,
			MaxResolution:     16,
			DefaultFrequency:  1000,
			DefaultResolution: 16,
			Preferred:         preferred,
		},
	}
}

// Builtin returns the catalog of boards shipped with blockgen.
func Builtin() *Catalog {
	c := NewCatalog()
	for _, b := range []Board{esp32DevKit(), esp32S3(), arduinoUno(), rp2040Pico()} {
		if err := c.Add(b); err != nil {
			panic(fmt.Sprintf("builtin board %s: %v", b.ID, err))
		}
	}
	return c
}
