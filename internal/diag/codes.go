package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Emission
	GenInfo               Code = 1000
	GenUnknownBlock       Code = 1001
	GenMissingInput       Code = 1002
	GenRuleFailed         Code = 1003
	GenUnresolvedVariable Code = 1004
	GenUnresolvedCall     Code = 1005
	GenBadField           Code = 1006
	GenFlowOutsideLoop    Code = 1007
	GenReturnOutsideProc  Code = 1008

	// Pins
	PinInfo         Code = 2000
	PinModeConflict Code = 2001
	PinNotCapable   Code = 2002
	PinUnknown      Code = 2003

	// PWM
	PWMInfo               Code = 3000
	PWMResolutionAdjusted Code = 3001
	PWMChannelsExhausted  Code = 3002
	PWMReconfigured       Code = 3003
	PWMTimerShared        Code = 3004

	// Structure of the input tree (fatal)
	StrInfo         Code = 4000
	StrCycle        Code = 4001
	StrSharedNode   Code = 4002
	StrDanglingLink Code = 4003
	StrTooDeep      Code = 4004
	StrMalformed    Code = 4005

	// Project and board configuration
	PrjInfo         Code = 5000
	PrjManifest     Code = 5001
	PrjUnknownBoard Code = 5002
	PrjTargetBoard  Code = 5003
)

var (
	codeDescription = map[Code]string{
		UnknownCode:           "Unknown error",
		GenInfo:               "Emission information",
		GenUnknownBlock:       "Unknown block type",
		GenMissingInput:       "Missing input",
		GenRuleFailed:         "Block rule failed",
		GenUnresolvedVariable: "Unresolved variable",
		GenUnresolvedCall:     "Unresolved procedure",
		GenBadField:           "Invalid field value",
		GenFlowOutsideLoop:    "Loop flow statement outside of a loop",
		GenReturnOutsideProc:  "Return outside of a procedure",
		PinInfo:               "Pin information",
		PinModeConflict:       "Conflicting pin modes",
		PinNotCapable:         "Pin does not support this use",
		PinUnknown:            "Pin is not part of the board",
		PWMInfo:               "PWM information",
		PWMResolutionAdjusted: "PWM resolution adjusted",
		PWMChannelsExhausted:  "No free PWM channel",
		PWMReconfigured:       "PWM pin already configured",
		PWMTimerShared:        "PWM timer shared with different frequency",
		StrInfo:               "Structure information",
		StrCycle:              "Cyclic block reference",
		StrSharedNode:         "Block reachable twice",
		StrDanglingLink:       "Dangling block link",
		StrTooDeep:            "Block tree too deep",
		StrMalformed:          "Malformed workspace",
		PrjInfo:               "Project information",
		PrjManifest:           "Invalid blockgen.toml",
		PrjUnknownBoard:       "Unknown board",
		PrjTargetBoard:        "Board does not support target",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("GEN%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("PIN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("PWM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("STR%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
