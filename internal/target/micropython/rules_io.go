package micropython

import (
	"fmt"
	"strconv"
	"strings"

	"blockgen/internal/block"
	"blockgen/internal/diag"
	"blockgen/internal/emit"
	"blockgen/internal/pinmode"
	"blockgen/internal/pwm"
)

func registerIO(t *emit.Table) {
	t.Stmt("io_pinmode", ioPinMode)
	t.Stmt("io_digitalwrite", ioDigitalWrite)
	t.Expr("io_digitalread", ioDigitalRead)
	t.Expr("io_analogread", ioAnalogRead)
	t.Stmt("io_analogwrite", ioAnalogWrite)
	t.Stmt("io_pwm_setup", ioPWMSetup)
	t.Expr("io_highlow", ioHighLow)
	t.Stmt("time_delay", timeDelay)
	t.Stmt("time_delay_us", timeDelayMicros)
	t.Expr("time_millis", timeMillis)
	t.Stmt("serial_begin", serialBegin)
	t.Stmt("servo_write", servoWrite)
	t.Expr("dht_read", dhtRead)
	t.Expr("ultrasonic_distance", ultrasonicDistance)
	t.Stmt("custom_code", customCode)
}

const (
	importPin  = "from machine import Pin"
	importPWM  = "from machine import PWM"
	importADC  = "from machine import ADC"
	importTime = "import time"
)

// pinArgs is the Pin constructor tail for mode; empty when the mode is
// not a plain digital configuration.
func pinArgs(mode pinmode.Mode) string {
	switch mode {
	case pinmode.Output:
		return "Pin.OUT"
	case pinmode.Input:
		return "Pin.IN"
	case pinmode.InputPullup:
		return "Pin.IN, Pin.PULL_UP"
	case pinmode.InputPulldown:
		return "Pin.IN, Pin.PULL_DOWN"
	}
	return ""
}

// pinObject claims pin for mode and returns the module-level Pin object
// driving it. The first claim constructs the object; a later claim with
// another mode reconfigures it in init.
func pinObject(p *emit.Pass, b *block.Node, pin string, mode pinmode.Mode) string {
	claim := p.Session.ClaimPin(pin, mode, b.ID)
	obj := p.Ident("pin" + pin)
	args := pinArgs(mode)
	if args == "" {
		return obj
	}
	p.Session.AddInclude("machine_pin", importPin)
	if !p.Session.AddGlobal("pin_"+pin, fmt.Sprintf("%s = Pin(%s, %s)", obj, pin, args)) && claim.Conflict != nil {
		p.Session.PushInit(fmt.Sprintf("%s.init(%s)", obj, args))
	}
	return obj
}

func ioPinMode(p *emit.Pass, b *block.Node) (string, error) {
	pin, err := p.Pin(b, "PIN")
	if err != nil {
		return "", err
	}
	mode, ok := pinmode.ParseMode(b.FieldOr("MODE", string(pinmode.Output)))
	if !ok {
		return "", fmt.Errorf("unknown pin mode %q", b.Field("MODE"))
	}
	pinObject(p, b, pin, mode)
	return "", nil
}

func ioDigitalWrite(p *emit.Pass, b *block.Node) (string, error) {
	pin, err := p.Pin(b, "PIN")
	if err != nil {
		return "", err
	}
	obj := pinObject(p, b, pin, pinmode.Output)
	state := "0"
	if b.Field("STATE") == "HIGH" {
		state = "1"
	}
	if b.Input("STATE") != nil {
		state = p.Value(b, "STATE", orderNone, emit.TypeInt)
	}
	return fmt.Sprintf("%s.value(%s)\n", obj, state), nil
}

func readMode(p *emit.Pass, pin string) pinmode.Mode {
	if m, ok := p.Session.Pins.Mode(pin); ok && (m == pinmode.InputPullup || m == pinmode.InputPulldown) {
		return m
	}
	return pinmode.Input
}

func ioDigitalRead(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	pin, err := p.Pin(b, "PIN")
	if err != nil {
		return emit.Expr{}, err
	}
	obj := pinObject(p, b, pin, readMode(p, pin))
	return emit.Op(obj+".value()", orderMember, emit.TypeInt), nil
}

// ioAnalogRead scales read_u16 down to the board's native ADC width so
// thresholds match the Arduino output.
func ioAnalogRead(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	pin, err := p.Pin(b, "PIN")
	if err != nil {
		return emit.Expr{}, err
	}
	p.Session.ClaimPin(pin, pinmode.AnalogIn, b.ID)
	p.Session.AddInclude("machine_pin", importPin)
	p.Session.AddInclude("machine_adc", importADC)
	obj := p.Ident("adc" + pin)
	p.Session.AddGlobal("adc_"+pin, fmt.Sprintf("%s = ADC(Pin(%s))", obj, pin))
	read := obj + ".read_u16()"
	if bits := p.Session.Board.AnalogReadBits; bits > 0 && bits < 16 {
		return emit.Op(read+" >> "+strconv.Itoa(16-bits), orderShift, emit.TypeInt), nil
	}
	return emit.Op(read, orderMember, emit.TypeInt), nil
}

func preparePWM(p *emit.Pass) {
	emit.Visit(p.Session.Workspace, func(n *block.Node) {
		if n.Type != "io_pwm_setup" {
			return
		}
		pin := strings.TrimSpace(n.Field("PIN"))
		if pin == "" {
			return
		}
		if _, ok := p.Session.PWM.Lookup(pin); ok {
			return
		}
		p.Session.ClaimPWM(pin, n.ID, p.IntField(n, "FREQUENCY", 0), p.IntField(n, "RESOLUTION", 0))
	})
}

func claimPWM(p *emit.Pass, b *block.Node, pin string, freq, res int) pwm.Assignment {
	if as, ok := p.Session.PWM.Lookup(pin); ok && as.Block == b.ID {
		return as
	}
	as, _ := p.Session.ClaimPWM(pin, b.ID, freq, res)
	return as
}

// pwmObject declares the PWM object of pin at the frequency in effect.
// The firmware always takes a 16-bit duty, so the resolution only bounds
// the frequency.
func pwmObject(p *emit.Pass, pin string, as pwm.Assignment) string {
	p.Session.AddInclude("machine_pin", importPin)
	p.Session.AddInclude("machine_pwm", importPWM)
	obj := p.Ident("pwm" + pin)
	p.Session.AddGlobal("pwm_"+pin, fmt.Sprintf("%s = PWM(Pin(%s), freq=%d)", obj, pin, as.Frequency))
	return obj
}

func ioPWMSetup(p *emit.Pass, b *block.Node) (string, error) {
	pin, err := p.Pin(b, "PIN")
	if err != nil {
		return "", err
	}
	p.Session.ClaimPin(pin, pinmode.PWM, b.ID)
	as := claimPWM(p, b, pin, p.IntField(b, "FREQUENCY", 0), p.IntField(b, "RESOLUTION", 0))
	pwmObject(p, pin, as)
	return "", nil
}

func ioAnalogWrite(p *emit.Pass, b *block.Node) (string, error) {
	pin, err := p.Pin(b, "PIN")
	if err != nil {
		return "", err
	}
	p.Session.ClaimPin(pin, pinmode.PWM, b.ID)
	obj := pwmObject(p, pin, claimPWM(p, b, pin, 0, 0))
	lo, hi := p.Session.Board.AnalogOutRange()
	var duty string
	switch {
	case lo == 0 && hi == 65535:
		duty = p.Value(b, "NUM", orderNone, emit.TypeInt)
	case lo == 0 && hi > 0:
		duty = p.Value(b, "NUM", orderMultiplicative, emit.TypeInt) + " * 65535 // " + strconv.Itoa(hi)
	default:
		p.Session.AddHelper("map_range", mapHelper)
		duty = fmt.Sprintf("map_range(%s, %d, %d, 0, 65535)", p.Value(b, "NUM", orderNone, emit.TypeInt), lo, hi)
	}
	return fmt.Sprintf("%s.duty_u16(%s)\n", obj, duty), nil
}

func ioHighLow(_ *emit.Pass, b *block.Node) (emit.Expr, error) {
	if b.Field("STATE") == "HIGH" {
		return emit.Atom("1", emit.TypeInt), nil
	}
	return emit.Atom("0", emit.TypeInt), nil
}

func timeDelay(p *emit.Pass, b *block.Node) (string, error) {
	p.Session.AddInclude("time", importTime)
	return "time.sleep_ms(" + p.Value(b, "MS", orderNone, emit.TypeInt) + ")\n", nil
}

func timeDelayMicros(p *emit.Pass, b *block.Node) (string, error) {
	p.Session.AddInclude("time", importTime)
	return "time.sleep_us(" + p.Value(b, "US", orderNone, emit.TypeInt) + ")\n", nil
}

func timeMillis(p *emit.Pass, _ *block.Node) (emit.Expr, error) {
	p.Session.AddInclude("time", importTime)
	return emit.Op("time.ticks_ms()", orderMember, emit.TypeInt), nil
}

func serialBegin(p *emit.Pass, b *block.Node) (string, error) {
	p.Session.Info(diag.GenInfo, b.ID, "print() writes to the REPL port; serial_begin emits nothing")
	return "", nil
}

// servoHelper drives a hobby servo with a 50 Hz PWM: 0.5 ms at 0 degrees
// up to 2.5 ms at 180.
const servoHelper = `def servo_write(servo, angle):
    servo.duty_u16(int(1638 + angle * (8192 - 1638) / 180))
`

func servoWrite(p *emit.Pass, b *block.Node) (string, error) {
	pin, err := p.Pin(b, "PIN")
	if err != nil {
		return "", err
	}
	p.Session.ClaimPin(pin, pinmode.Servo, b.ID)
	p.Session.AddInclude("machine_pin", importPin)
	p.Session.AddInclude("machine_pwm", importPWM)
	obj := p.Ident("servo" + pin)
	p.Session.AddGlobal("servo_"+pin, fmt.Sprintf("%s = PWM(Pin(%s), freq=50)", obj, pin))
	p.Session.AddHelper("servo_write", servoHelper)
	return fmt.Sprintf("servo_write(%s, %s)\n", obj, p.Value(b, "ANGLE", orderNone, emit.TypeInt)), nil
}

const dhtHelper = `def dht_read(sensor, humidity):
    sensor.measure()
    return sensor.humidity() if humidity else sensor.temperature()
`

func dhtRead(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	pin, err := p.Pin(b, "PIN")
	if err != nil {
		return emit.Expr{}, err
	}
	sensor := b.FieldOr("SENSOR", "DHT22")
	if sensor != "DHT11" && sensor != "DHT22" {
		return emit.Expr{}, fmt.Errorf("unknown DHT sensor %q", sensor)
	}
	p.Session.ClaimPin(pin, pinmode.Input, b.ID)
	p.Session.AddInclude("machine_pin", importPin)
	p.Session.AddInclude("dht", "import dht")
	obj := p.Ident("dht" + pin)
	p.Session.AddGlobal("dht_"+pin, fmt.Sprintf("%s = dht.%s(Pin(%s))", obj, sensor, pin))
	p.Session.AddHelper("dht_read", dhtHelper)
	humidity := "False"
	if b.Field("MEASURE") == "HUMIDITY" {
		humidity = "True"
	}
	return emit.Op(fmt.Sprintf("dht_read(%s, %s)", obj, humidity), orderMember, emit.TypeFloat), nil
}

const ultrasonicHelper = `def read_ultrasonic_cm(trig, echo):
    trig.value(0)
    time.sleep_us(2)
    trig.value(1)
    time.sleep_us(10)
    trig.value(0)
    duration = time_pulse_us(echo, 1, 30000)
    return duration / 58.0
`

func ultrasonicDistance(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	trig, err := p.Pin(b, "TRIG")
	if err != nil {
		return emit.Expr{}, err
	}
	echo, err := p.Pin(b, "ECHO")
	if err != nil {
		return emit.Expr{}, err
	}
	t := pinObject(p, b, trig, pinmode.Output)
	e := pinObject(p, b, echo, pinmode.Input)
	p.Session.AddInclude("time", importTime)
	p.Session.AddInclude("machine_pulse", "from machine import time_pulse_us")
	p.Session.AddHelper("ultrasonic", ultrasonicHelper)
	return emit.Op(fmt.Sprintf("read_ultrasonic_cm(%s, %s)", t, e), orderMember, emit.TypeFloat), nil
}

func customCode(_ *emit.Pass, b *block.Node) (string, error) {
	code := strings.TrimRight(b.Field("CODE"), "\n")
	if code == "" {
		return "", nil
	}
	return code + "\n", nil
}
