package emit

import (
	"fmt"
	"slices"
	"time"

	"blockgen/internal/block"
	"blockgen/internal/diag"
	"blockgen/internal/pinmode"
	"blockgen/internal/platform"
	"blockgen/internal/pwm"
)

// DefaultMaxDiagnostics bounds the diagnostics kept per pass.
const DefaultMaxDiagnostics = 256

// Options configure a Session.
type Options struct {
	Board     platform.Board
	Workspace *block.Workspace
	// Banner is the first header comment line; empty disables the header.
	Banner string
	// BuildTime is stamped into the header when non-zero.
	BuildTime      time.Time
	MaxDiagnostics int
	// Reporter receives each distinct diagnostic once.
	Reporter diag.Reporter
}

// Session is the emission context of one generation pass.
type Session struct {
	Board     platform.Board
	Workspace *block.Workspace
	Banner    string
	BuildTime time.Time

	Pins *pinmode.Tracker
	PWM  *pwm.Allocator

	includes *Section
	globals  *Section
	helpers  *Section
	init     *List
	deps     map[string]struct{}
	warnings []string
	vars     map[string]ValueType
	varOrder []string
	marks    map[string]struct{}
	procs    map[string]Proc

	bag      *diag.Bag
	reporter diag.Reporter
}

// NewSession builds an empty session. The board descriptor is copied.
func NewSession(opts Options) *Session {
	limit := opts.MaxDiagnostics
	if limit <= 0 {
		limit = DefaultMaxDiagnostics
	}
	board := opts.Board.Clone()
	bag := diag.NewBag(limit)
	var reporter diag.Reporter = diag.BagReporter{Bag: bag}
	if opts.Reporter != nil {
		reporter = diag.MultiReporter{reporter, diag.NewDedupReporter(opts.Reporter)}
	}
	ws := opts.Workspace
	if ws == nil {
		ws = &block.Workspace{}
	}
	return &Session{
		Board:     board,
		Workspace: ws,
		Banner:    opts.Banner,
		BuildTime: opts.BuildTime,
		Pins:      pinmode.New(),
		PWM:       pwm.NewAllocator(board.PWM),
		includes:  NewSection(),
		globals:   NewSection(),
		helpers:   NewSection(),
		init:      NewList(),
		deps:      make(map[string]struct{}),
		vars:      make(map[string]ValueType),
		marks:     make(map[string]struct{}),
		bag:       bag,
		reporter:  reporter,
	}
}

// AddInclude stores an include line. First write per key wins.
func (s *Session) AddInclude(key, text string) bool { return s.includes.InsertIfAbsent(key, text) }

// AddGlobal stores a global declaration. First write per key wins.
func (s *Session) AddGlobal(key, text string) bool { return s.globals.InsertIfAbsent(key, text) }

// AddHelper stores a helper definition. First write per key wins.
func (s *Session) AddHelper(key, text string) bool { return s.helpers.InsertIfAbsent(key, text) }

// HasHelper reports whether a helper key is taken.
func (s *Session) HasHelper(key string) bool { return s.helpers.Has(key) }

// PushInit appends a one-time initialisation statement unless the exact
// text is already queued.
func (s *Session) PushInit(text string) bool { return s.init.Push(text) }

// ReassertInit moves text to the end of the init statements, adding it if
// absent. Used when a later block overrides an earlier configuration.
func (s *Session) ReassertInit(text string) { s.init.Reassert(text) }

// AddDependency records a library the program needs.
func (s *Session) AddDependency(id string) {
	if id != "" {
		s.deps[id] = struct{}{}
	}
}

// AddWarning appends a free-form warning.
func (s *Session) AddWarning(text string) {
	s.Warn(diag.GenInfo, "", text)
}

// Warn appends a warning and reports it as a diagnostic.
func (s *Session) Warn(code diag.Code, blockID, msg string, notes ...diag.Note) {
	s.warnings = append(s.warnings, msg)
	b := diag.ReportWarning(s.reporter, code, blockID, msg)
	for _, n := range notes {
		b.WithNote(n.Block, n.Msg)
	}
	b.Emit()
}

// Info reports an informational diagnostic. It is not a user warning.
func (s *Session) Info(code diag.Code, blockID, msg string) {
	diag.ReportInfo(s.reporter, code, blockID, msg).Emit()
}

// Mark sets a pass-wide flag for rules that need to coordinate.
func (s *Session) Mark(flag string) { s.marks[flag] = struct{}{} }

// Marked reports whether flag was set.
func (s *Session) Marked(flag string) bool {
	_, ok := s.marks[flag]
	return ok
}

// DeclareVar records the type of a variable. The first declaration wins;
// the returned type is the one in effect.
func (s *Session) DeclareVar(name string, t ValueType) ValueType {
	if cur, ok := s.vars[name]; ok {
		return cur
	}
	s.vars[name] = t
	s.varOrder = append(s.varOrder, name)
	return t
}

// VarType returns the recorded type of a variable.
func (s *Session) VarType(name string) (ValueType, bool) {
	t, ok := s.vars[name]
	return t, ok
}

// Vars lists declared variables in declaration order.
func (s *Session) Vars() []string { return slices.Clone(s.varOrder) }

func (s *Session) Includes() []string { return s.includes.Values() }
func (s *Session) Globals() []string  { return s.globals.Values() }
func (s *Session) Helpers() []string  { return s.helpers.Values() }
func (s *Session) Init() []string     { return s.init.Items() }

// Dependencies returns library ids sorted.
func (s *Session) Dependencies() []string {
	out := make([]string, 0, len(s.deps))
	for id := range s.deps {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Warnings returns warnings in the order they were raised.
func (s *Session) Warnings() []string { return slices.Clone(s.warnings) }

// Diagnostics returns the bag of the pass.
func (s *Session) Diagnostics() *diag.Bag { return s.bag }

// PinClaim is the outcome of ClaimPin.
type PinClaim struct {
	// New is set the first time the pin is claimed in this pass.
	New bool
	// Conflict is set when the pin held another mode before.
	Conflict *pinmode.Conflict
}

// ClaimPin asserts mode for pin, checking board capabilities and raising a
// PIN2001 warning on conflicts. The last asserted mode stays authoritative.
func (s *Session) ClaimPin(pin string, mode pinmode.Mode, blockID string) PinClaim {
	s.checkPin(pin, mode, blockID)
	_, seen := s.Pins.Lookup(pin)
	c := s.Pins.Set(pin, mode, blockID)
	if c != nil {
		s.Warn(diag.PinModeConflict, blockID, c.Message(),
			diag.Note{Block: c.Previous.Block, Msg: fmt.Sprintf("pin %s declared %s here", pin, c.Previous.Mode)})
	}
	return PinClaim{New: !seen, Conflict: c}
}

func (s *Session) checkPin(pin string, mode pinmode.Mode, blockID string) {
	b := s.Board
	if len(b.DigitalPins)+len(b.AnalogPins) == 0 {
		return
	}
	if !b.HasDigital(pin) && !b.HasAnalog(pin) {
		s.Warn(diag.PinUnknown, blockID, fmt.Sprintf("pin %s is not listed for board %s", pin, b.ID))
		return
	}
	switch {
	case mode.Drives() && !b.CanDrive(pin):
		s.Warn(diag.PinNotCapable, blockID, fmt.Sprintf("pin %s on %s is input-only and cannot be used as %s", pin, b.ID, mode))
	case mode == pinmode.PWM && !b.CanPWM(pin):
		s.Warn(diag.PinNotCapable, blockID, fmt.Sprintf("pin %s on %s cannot produce PWM", pin, b.ID))
	case mode == pinmode.AnalogIn && !b.HasAnalog(pin):
		s.Warn(diag.PinNotCapable, blockID, fmt.Sprintf("pin %s on %s has no analog input", pin, b.ID))
	}
}

// ClaimPWM validates the requested frequency and resolution against the
// board and allocates a channel for pin. Zero frequency and resolution ask
// for the board defaults (or the pin's existing configuration).
func (s *Session) ClaimPWM(pin, blockID string, freq, res int) (pwm.Assignment, pwm.Status) {
	spec := s.Board.PWM
	if freq != 0 || res != 0 {
		if spec.MaxResolution > 0 && res > spec.MaxResolution {
			s.Warn(diag.PWMResolutionAdjusted, blockID,
				fmt.Sprintf("PWM resolution %d-bit exceeds the %d-bit maximum of %s; using %d-bit", res, spec.MaxResolution, s.Board.ID, spec.MaxResolution))
			res = spec.MaxResolution
		}
		v := pwm.Validate(freq, res, pwm.LimitsOf(spec))
		if v.Adjusted {
			s.Warn(diag.PWMResolutionAdjusted, blockID, v.Message)
		} else {
			s.Info(diag.PWMInfo, blockID, v.Message)
		}
		freq, res = v.Frequency, v.Resolution
	}

	as, st := s.PWM.Allocate(pwm.Claim{Pin: pin, Block: blockID, Frequency: freq, Resolution: res})
	if st.Exhausted {
		s.Warn(diag.PWMChannelsExhausted, blockID, as.ExhaustedMessage(spec.Channels))
	}
	if st.Mismatch {
		s.Warn(diag.PWMReconfigured, blockID,
			fmt.Sprintf("pin %s is already configured for %d Hz at %d-bit by block %s; keeping that configuration", pin, as.Frequency, as.Resolution, orDash(as.Block)),
			diag.Note{Block: as.Block, Msg: "first PWM configuration"})
	}
	if st.TimerPeer != nil {
		s.Warn(diag.PWMTimerShared, blockID, as.TimerMessage(*st.TimerPeer),
			diag.Note{Block: st.TimerPeer.Block, Msg: fmt.Sprintf("pin %s configured here", st.TimerPeer.Pin)})
	}
	return as, st
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
