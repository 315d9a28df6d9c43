package platform

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownBoard is returned when a board id is not in the catalog.
var ErrUnknownBoard = errors.New("unknown board")

// Catalog is an ordered set of board descriptors.
type Catalog struct {
	boards map[string]Board
	order  []string
}

func NewCatalog() *Catalog {
	return &Catalog{boards: make(map[string]Board)}
}

// Add registers b, replacing an existing descriptor with the same id.
func (c *Catalog) Add(b Board) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if _, ok := c.boards[b.ID]; !ok {
		c.order = append(c.order, b.ID)
	}
	c.boards[b.ID] = b.Clone()
	return nil
}

// Lookup returns a copy of the descriptor.
func (c *Catalog) Lookup(id string) (Board, error) {
	b, ok := c.boards[strings.TrimSpace(id)]
	if !ok {
		return Board{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownBoard, id, strings.Join(c.IDs(), ", "))
	}
	return b.Clone(), nil
}

// IDs returns board ids in registration order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// List returns copies of all boards in registration order.
func (c *Catalog) List() []Board {
	out := make([]Board, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.boards[id].Clone())
	}
	return out
}

// Validate checks internal consistency of a descriptor.
func (b Board) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return errors.New("board id is empty")
	}
	if len(b.Targets) == 0 {
		return fmt.Errorf("board %s: no targets", b.ID)
	}
	for _, t := range b.Targets {
		if t != TargetArduino && t != TargetMicroPython {
			return fmt.Errorf("board %s: unknown target %q", b.ID, t)
		}
	}
	if b.AnalogOutMax <= b.AnalogOutMin {
		return fmt.Errorf("board %s: analog output range [%d, %d] is empty", b.ID, b.AnalogOutMin, b.AnalogOutMax)
	}
	p := b.PWM
	if p.ResolutionFloor <= 0 || p.MaxResolution < p.ResolutionFloor {
		return fmt.Errorf("board %s: resolution floor %d / max %d invalid", b.ID, p.ResolutionFloor, p.MaxResolution)
	}
	if p.Kind == PWMLedc || p.Kind == PWMSlice {
		if p.Channels <= 0 {
			return fmt.Errorf("board %s: %s PWM needs channels", b.ID, p.Kind)
		}
		if p.ClockCeiling == 0 {
			return fmt.Errorf("board %s: clock ceiling is zero", b.ID)
		}
	}
	// упорядочим ключи, чтобы ошибка была детерминированной
	pins := make([]string, 0, len(p.Preferred))
	for pin := range p.Preferred {
		pins = append(pins, pin)
	}
	sort.Strings(pins)
	for _, pin := range pins {
		if ch := p.Preferred[pin]; ch < 0 || ch >= p.Channels {
			return fmt.Errorf("board %s: preferred channel %d for pin %s out of range", b.ID, ch, pin)
		}
	}
	return nil
}
