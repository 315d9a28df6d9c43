package pwm

import (
	"fmt"

	"blockgen/internal/platform"
)

// NoChannel is the channel of boards that drive PWM without channels.
const NoChannel = -1

// Assignment is the PWM configuration in effect for a pin.
type Assignment struct {
	Pin        string
	Channel    int
	Timer      int
	Frequency  int
	Resolution int
	Block      string
	// Fallback is set when no channel was free and the last channel is shared.
	Fallback bool
}

// Claim is what a block asks for.
type Claim struct {
	Pin        string
	Block      string
	Frequency  int
	Resolution int
}

// Status describes what Allocate did.
type Status struct {
	New       bool
	Exhausted bool
	// Mismatch: the pin was already configured with another frequency/resolution.
	Mismatch bool
	// TimerPeer is a pin on the same hardware timer running a different frequency.
	TimerPeer *Assignment
}

// Allocator assigns channels per generation pass.
type Allocator struct {
	spec  platform.PWMSpec
	byPin map[string]Assignment
	owner map[int]string
	order []string
}

func NewAllocator(spec platform.PWMSpec) *Allocator {
	return &Allocator{
		spec:  spec,
		byPin: make(map[string]Assignment),
		owner: make(map[int]string),
	}
}

// Lookup returns the cached assignment of pin.
func (a *Allocator) Lookup(pin string) (Assignment, bool) {
	as, ok := a.byPin[pin]
	return as, ok
}

// Assignments returns every assignment in allocation order.
func (a *Allocator) Assignments() []Assignment {
	out := make([]Assignment, 0, len(a.order))
	for _, pin := range a.order {
		out = append(out, a.byPin[pin])
	}
	return out
}

// AllocateChannel claims pin with the board defaults and returns its channel.
func (a *Allocator) AllocateChannel(pin string) int {
	as, _ := a.Allocate(Claim{Pin: pin})
	return as.Channel
}

// Allocate returns the cached assignment for c.Pin or creates one. Zero
// frequency or resolution in c mean the board defaults.
func (a *Allocator) Allocate(c Claim) (Assignment, Status) {
	freq, res := c.Frequency, c.Resolution
	if freq <= 0 {
		freq = a.spec.DefaultFrequency
	}
	if res <= 0 {
		res = a.spec.DefaultResolution
	}
	if as, ok := a.byPin[c.Pin]; ok {
		st := Status{}
		if c.Frequency > 0 || c.Resolution > 0 {
			st.Mismatch = as.Frequency != freq || as.Resolution != res
		}
		return as, st
	}

	st := Status{New: true}
	as := Assignment{
		Pin:        c.Pin,
		Channel:    NoChannel,
		Timer:      NoChannel,
		Frequency:  freq,
		Resolution: res,
		Block:      c.Block,
	}
	if a.spec.Channels > 0 {
		ch, ok := a.pick(c.Pin)
		if !ok {
			ch = a.spec.Channels - 1
			as.Fallback = true
			st.Exhausted = true
		}
		as.Channel = ch
		if _, taken := a.owner[ch]; !taken {
			a.owner[ch] = c.Pin
		}
		as.Timer = a.timerOf(ch)
		st.TimerPeer = a.timerPeer(as)
	}
	a.byPin[c.Pin] = as
	a.order = append(a.order, c.Pin)
	return as, st
}

func (a *Allocator) pick(pin string) (int, bool) {
	if ch, ok := a.spec.Preferred[pin]; ok && ch >= 0 && ch < a.spec.Channels {
		if owner, taken := a.owner[ch]; !taken || owner == pin {
			return ch, true
		}
	}
	for ch := 0; ch < a.spec.Channels; ch++ {
		if _, taken := a.owner[ch]; !taken {
			return ch, true
		}
	}
	return 0, false
}

func (a *Allocator) timerOf(ch int) int {
	if a.spec.ChannelsPerTimer <= 0 || a.spec.Timers <= 0 || ch < 0 {
		return NoChannel
	}
	return (ch / a.spec.ChannelsPerTimer) % a.spec.Timers
}

func (a *Allocator) timerPeer(as Assignment) *Assignment {
	if as.Timer == NoChannel {
		return nil
	}
	for _, pin := range a.order {
		peer := a.byPin[pin]
		if peer.Timer == as.Timer && peer.Frequency != as.Frequency {
			return &peer
		}
	}
	return nil
}

// ExhaustedMessage is the warning text for a fallback assignment.
func (as Assignment) ExhaustedMessage(channels int) string {
	return fmt.Sprintf("all %d PWM channels are in use; pin %s shares channel %d", channels, as.Pin, as.Channel)
}

// TimerMessage is the warning text for a timer shared at different frequencies.
func (as Assignment) TimerMessage(peer Assignment) string {
	return fmt.Sprintf("pin %s (channel %d, %d Hz) shares timer %d with pin %s (channel %d, %d Hz); the last configured frequency applies to both",
		as.Pin, as.Channel, as.Frequency, as.Timer, peer.Pin, peer.Channel, peer.Frequency)
}
