package arduino

import (
	"fmt"
	"strings"

	"blockgen/internal/block"
	"blockgen/internal/diag"
	"blockgen/internal/emit"
	"blockgen/internal/pinmode"
	"blockgen/internal/platform"
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

// pinModeLine configures pin in setup(). Modes without a pinMode
// equivalent configure nothing. After a conflicting claim the line moves
// last so setup() ends on the mode the tracker holds.
func pinModeLine(p *emit.Pass, pin string, mode pinmode.Mode, claim emit.PinClaim) {
	switch mode {
	case pinmode.Output, pinmode.Input, pinmode.InputPullup, pinmode.InputPulldown:
		line := fmt.Sprintf("pinMode(%s, %s);", pin, mode)
		if claim.Conflict != nil {
			p.Session.ReassertInit(line)
			return
		}
		p.Session.PushInit(line)
	}
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
	claim := p.Session.ClaimPin(pin, mode, b.ID)
	pinModeLine(p, pin, mode, claim)
	return "", nil
}

func ioDigitalWrite(p *emit.Pass, b *block.Node) (string, error) {
	pin, err := p.Pin(b, "PIN")
	if err != nil {
		return "", err
	}
	claim := p.Session.ClaimPin(pin, pinmode.Output, b.ID)
	pinModeLine(p, pin, pinmode.Output, claim)
	state := b.FieldOr("STATE", "LOW")
	if b.Input("STATE") != nil {
		state = p.Value(b, "STATE", orderNone, emit.TypeInt)
	}
	return fmt.Sprintf("digitalWrite(%s, %s);\n", pin, state), nil
}

// readMode keeps a pull-up or pull-down the program already chose.
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
	mode := readMode(p, pin)
	claim := p.Session.ClaimPin(pin, mode, b.ID)
	pinModeLine(p, pin, mode, claim)
	return emit.Atom("digitalRead("+pin+")", emit.TypeInt), nil
}

func ioAnalogRead(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	pin, err := p.Pin(b, "PIN")
	if err != nil {
		return emit.Expr{}, err
	}
	p.Session.ClaimPin(pin, pinmode.AnalogIn, b.ID)
	return emit.Atom("analogRead("+pin+")", emit.TypeInt), nil
}

// preparePWM claims the pins of every io_pwm_setup block before the walk,
// so an explicit configuration wins over defaults requested by writes that
// happen to be visited first.
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

// claimPWM returns the configuration of pin, reusing the one prepared for b.
func claimPWM(p *emit.Pass, b *block.Node, pin string, freq, res int) pwm.Assignment {
	if as, ok := p.Session.PWM.Lookup(pin); ok && as.Block == b.ID {
		return as
	}
	as, _ := p.Session.ClaimPWM(pin, b.ID, freq, res)
	return as
}

// attach emits the LEDC channel setup for pin once.
func attach(p *emit.Pass, pin string, as pwm.Assignment) {
	p.Session.PushInit(fmt.Sprintf("ledcSetup(%d, %d, %d);\nledcAttachPin(%s, %d);",
		as.Channel, as.Frequency, as.Resolution, pin, as.Channel))
}

func ioPWMSetup(p *emit.Pass, b *block.Node) (string, error) {
	pin, err := p.Pin(b, "PIN")
	if err != nil {
		return "", err
	}
	claim := p.Session.ClaimPin(pin, pinmode.PWM, b.ID)
	freq, res := p.IntField(b, "FREQUENCY", 0), p.IntField(b, "RESOLUTION", 0)
	as := claimPWM(p, b, pin, freq, res)
	if p.Session.Board.PWM.Kind == platform.PWMLedc {
		attach(p, pin, as)
		return "", nil
	}
	if freq > 0 && freq != p.Session.Board.PWM.DefaultFrequency {
		p.Session.Info(diag.PWMInfo, b.ID, fmt.Sprintf("analogWrite on %s runs at a fixed %d Hz; %d Hz is ignored",
			p.Session.Board.ID, p.Session.Board.PWM.DefaultFrequency, freq))
	}
	pinModeLine(p, pin, pinmode.Output, claim)
	return "", nil
}

func ioAnalogWrite(p *emit.Pass, b *block.Node) (string, error) {
	pin, err := p.Pin(b, "PIN")
	if err != nil {
		return "", err
	}
	p.Session.ClaimPin(pin, pinmode.PWM, b.ID)
	value := p.Value(b, "NUM", orderNone, emit.TypeInt)
	board := p.Session.Board
	if board.PWM.Kind != platform.PWMLedc {
		p.Session.ClaimPWM(pin, b.ID, 0, 0)
		return fmt.Sprintf("analogWrite(%s, %s);\n", pin, value), nil
	}
	as := claimPWM(p, b, pin, 0, 0)
	attach(p, pin, as)
	lo, hi := board.AnalogOutRange()
	top := 1<<as.Resolution - 1
	if lo != 0 || hi != top {
		value = fmt.Sprintf("map(%s, %d, %d, 0, %d)", value, lo, hi, top)
	}
	return fmt.Sprintf("ledcWrite(%d, %s);\n", as.Channel, value), nil
}

func ioHighLow(_ *emit.Pass, b *block.Node) (emit.Expr, error) {
	if b.Field("STATE") == "HIGH" {
		return emit.Atom("HIGH", emit.TypeInt), nil
	}
	return emit.Atom("LOW", emit.TypeInt), nil
}

func timeDelay(p *emit.Pass, b *block.Node) (string, error) {
	return "delay(" + p.Value(b, "MS", orderNone, emit.TypeInt) + ");\n", nil
}

func timeDelayMicros(p *emit.Pass, b *block.Node) (string, error) {
	return "delayMicroseconds(" + p.Value(b, "US", orderNone, emit.TypeInt) + ");\n", nil
}

func timeMillis(*emit.Pass, *block.Node) (emit.Expr, error) {
	return emit.Atom("millis()", emit.TypeInt), nil
}

func serialBegin(p *emit.Pass, b *block.Node) (string, error) {
	p.Session.PushInit("Serial.begin(" + b.FieldOr("SPEED", defaultBaud) + ");")
	return "", nil
}

func servoWrite(p *emit.Pass, b *block.Node) (string, error) {
	pin, err := p.Pin(b, "PIN")
	if err != nil {
		return "", err
	}
	p.Session.ClaimPin(pin, pinmode.Servo, b.ID)
	if p.Session.Board.PWM.Kind == platform.PWMLedc {
		p.Session.AddInclude("servo", "#include <ESP32Servo.h>")
		p.Session.AddDependency("ESP32Servo")
	} else {
		p.Session.AddInclude("servo", "#include <Servo.h>")
		p.Session.AddDependency("Servo")
	}
	obj := p.Ident("servo_" + pin)
	p.Session.AddGlobal(obj, "Servo "+obj+";")
	p.Session.PushInit(fmt.Sprintf("%s.attach(%s);", obj, pin))
	return fmt.Sprintf("%s.write(%s);\n", obj, p.Value(b, "ANGLE", orderNone, emit.TypeInt)), nil
}

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
	p.Session.AddInclude("dht", "#include <DHT.h>")
	p.Session.AddDependency("DHT sensor library")
	p.Session.AddDependency("Adafruit Unified Sensor")
	obj := p.Ident("dht_" + pin)
	p.Session.AddGlobal(obj, fmt.Sprintf("DHT %s(%s, %s);", obj, pin, sensor))
	p.Session.PushInit(obj + ".begin();")
	if b.Field("MEASURE") == "HUMIDITY" {
		return emit.Atom(obj+".readHumidity()", emit.TypeFloat), nil
	}
	return emit.Atom(obj+".readTemperature()", emit.TypeFloat), nil
}

const ultrasonicHelper = `float readUltrasonicCm(int trigPin, int echoPin) {
  digitalWrite(trigPin, LOW);
  delayMicroseconds(2);
  digitalWrite(trigPin, HIGH);
  delayMicroseconds(10);
  digitalWrite(trigPin, LOW);
  long duration = pulseIn(echoPin, HIGH, 30000);
  return duration / 58.0;
}
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
	pinModeLine(p, trig, pinmode.Output, p.Session.ClaimPin(trig, pinmode.Output, b.ID))
	pinModeLine(p, echo, pinmode.Input, p.Session.ClaimPin(echo, pinmode.Input, b.ID))
	p.Session.AddHelper("ultrasonic", ultrasonicHelper)
	return emit.Atom(fmt.Sprintf("readUltrasonicCm(%s, %s)", trig, echo), emit.TypeFloat), nil
}

func customCode(_ *emit.Pass, b *block.Node) (string, error) {
	code := strings.TrimRight(b.Field("CODE"), "\n")
	if code == "" {
		return "", nil
	}
	return code + "\n", nil
}
