package arduino

import (
	"context"
	"strings"
	"testing"

	"blockgen/internal/block"
	"blockgen/internal/diag"
	"blockgen/internal/emit"
	"blockgen/internal/platform"
	"blockgen/internal/testkit"
)

func generate(t *testing.T, boardID, src string) (string, *emit.Session) {
	t.Helper()
	ws, err := block.Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := block.Validate(ws); err != nil {
		t.Fatalf("validate: %v", err)
	}
	board, err := platform.Builtin().Lookup(boardID)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	s := emit.NewSession(emit.Options{Board: board, Workspace: ws})
	tgt := New()
	main := emit.NewPass(context.Background(), tgt, s).Run(ws)
	return emit.Finish(tgt, s, main), s
}

const blinkTwice = `{"blocks": [{
  "type": "program_setup_loop", "id": "prog",
  "inputs": {"LOOP": {"block": {
    "type": "io_digitalwrite", "id": "w1", "fields": {"PIN": "13"},
    "inputs": {"STATE": {"shadow": {"type": "io_highlow", "id": "h1", "fields": {"STATE": "HIGH"}}}},
    "next": {"block": {
      "type": "io_digitalwrite", "id": "w2", "fields": {"PIN": "13"},
      "inputs": {"STATE": {"shadow": {"type": "io_highlow", "id": "h2", "fields": {"STATE": "LOW"}}}}
    }}
  }}}
}]}`

func TestDigitalWriteTwiceOnPin13(t *testing.T) {
	got, s := generate(t, "uno", blinkTwice)
	want := `#include <Arduino.h>

void setup() {
  pinMode(13, OUTPUT);
}

void loop() {
  digitalWrite(13, HIGH);
  digitalWrite(13, LOW);
}
`
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
	if err := testkit.CheckOutput(got, testkit.CStyle); err != nil {
		t.Fatalf("layout: %v", err)
	}
	if w := s.Warnings(); len(w) != 0 {
		t.Fatalf("unexpected warnings %q", w)
	}
}

func TestSetupChainGoesToSetup(t *testing.T) {
	src := `{"blocks": [{
  "type": "program_setup_loop", "id": "prog",
  "inputs": {
    "SETUP": {"block": {"type": "serial_begin", "id": "sb", "fields": {"SPEED": "9600"},
      "next": {"block": {"type": "text_print", "id": "tp", "inputs": {"TEXT": {"block": {"type": "text", "id": "t", "fields": {"TEXT": "hi \"there\""}}}}}}}},
    "LOOP": {"block": {"type": "time_delay", "id": "d", "inputs": {"MS": {"block": {"type": "math_number", "id": "n", "fields": {"NUM": 1000}}}}}}
  }
}]}`
	got, _ := generate(t, "esp32dev", src)
	want := `#include <Arduino.h>

void setup() {
  Serial.begin(9600);
  Serial.println("hi \"there\"");
}

void loop() {
  delay(1000);
}
`
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPWMSetupAndWriteOnESP32(t *testing.T) {
	src := `{"blocks": [
  {"type": "io_analogwrite", "id": "aw", "y": 50, "fields": {"PIN": "18"},
   "inputs": {"NUM": {"block": {"type": "math_number", "id": "n", "fields": {"NUM": 128}}}}},
  {"type": "io_pwm_setup", "id": "ps", "y": 10, "fields": {"PIN": "18", "FREQUENCY": 75000, "RESOLUTION": 12}},
  {"type": "io_analogwrite", "id": "aw2", "y": 90, "fields": {"PIN": "19"},
   "inputs": {"NUM": {"block": {"type": "math_number", "id": "m", "fields": {"NUM": 255}}}}}
]}`
	got, s := generate(t, "esp32dev", src)
	for _, frag := range []string{
		"  ledcSetup(0, 75000, 10);\n  ledcAttachPin(18, 0);\n",
		"  ledcSetup(1, 5000, 8);\n  ledcAttachPin(19, 1);\n",
		"  ledcWrite(0, map(128, 0, 255, 0, 1023));\n",
		"  ledcWrite(1, 255);\n",
	} {
		if strings.Count(got, frag) != 1 {
			t.Fatalf("missing %q in:\n%s", frag, got)
		}
	}
	d := s.Diagnostics().Filter(diag.SevWarning)
	golden := diag.FormatGolden(d, false)
	if len(d) != 2 || !strings.HasPrefix(golden, "warning PWM3001 ps PWM 75000 Hz at 12-bit") {
		t.Fatalf("diagnostics:\n%s", golden)
	}
	// channels 0 and 1 share timer 0 at different frequencies
	if d[1].Code != diag.PWMTimerShared || d[1].Block != "aw2" {
		t.Fatalf("diagnostics:\n%s", golden)
	}
}

func TestNativePWMUsesAnalogWrite(t *testing.T) {
	src := `{"blocks": [{"type": "io_analogwrite", "id": "aw", "fields": {"PIN": "9"},
   "inputs": {"NUM": {"block": {"type": "math_number", "id": "n", "fields": {"NUM": 64}}}}}]}`
	got, s := generate(t, "uno", src)
	if !strings.Contains(got, "void loop() {\n  analogWrite(9, 64);\n}") {
		t.Fatalf("got:\n%s", got)
	}
	if len(s.Warnings()) != 0 {
		t.Fatalf("warnings %q", s.Warnings())
	}
}

func TestPinConflictWarns(t *testing.T) {
	src := `{"blocks": [
  {"type": "io_digitalwrite", "id": "w", "fields": {"PIN": "4", "STATE": "HIGH"},
   "next": {"block": {"type": "variables_set", "id": "s", "fields": {"VAR": "x"},
     "inputs": {"VALUE": {"block": {"type": "io_digitalread", "id": "r", "fields": {"PIN": "4"}}}}}}}
]}`
	got, s := generate(t, "esp32dev", src)
	if !strings.Contains(got, "  pinMode(4, OUTPUT);\n  pinMode(4, INPUT);\n") {
		t.Fatalf("got:\n%s", got)
	}
	if !strings.Contains(got, "int x = 0;") || !strings.Contains(got, "x = digitalRead(4);") {
		t.Fatalf("variable not declared:\n%s", got)
	}
	d := s.Diagnostics().Filter(diag.SevWarning)
	if len(d) != 1 || d[0].Code != diag.PinModeConflict || d[0].Block != "r" {
		t.Fatalf("diagnostics %+v", d)
	}
	if mode, _ := s.Pins.Mode("4"); mode != "INPUT" {
		t.Fatalf("last mode = %s", mode)
	}
}

func TestUnknownBlockMarker(t *testing.T) {
	got, s := generate(t, "uno", `{"blocks": [{"type": "laser_fire", "id": "z"}]}`)
	if !strings.Contains(got, `  // unknown block "laser_fire"`) {
		t.Fatalf("got:\n%s", got)
	}
	if w := s.Warnings(); len(w) != 1 {
		t.Fatalf("warnings %q", w)
	}
}

func TestExpressionsAndControl(t *testing.T) {
	src := `{"blocks": [{"type": "controls_if", "id": "if", "extraState": {"hasElse": true},
  "inputs": {
    "IF0": {"block": {"type": "logic_compare", "id": "c", "fields": {"OP": "LT"},
      "inputs": {
        "A": {"block": {"type": "math_arithmetic", "id": "a", "fields": {"OP": "MULTIPLY"},
          "inputs": {
            "A": {"block": {"type": "math_arithmetic", "id": "a2", "fields": {"OP": "ADD"},
              "inputs": {"A": {"block": {"type": "math_number", "id": "1", "fields": {"NUM": 1}}},
                         "B": {"block": {"type": "math_number", "id": "2", "fields": {"NUM": 2}}}}}},
            "B": {"block": {"type": "math_number", "id": "3", "fields": {"NUM": 3}}}}}},
        "B": {"block": {"type": "time_millis", "id": "ms"}}}}},
    "DO0": {"block": {"type": "controls_repeat_ext", "id": "rep",
      "inputs": {"TIMES": {"block": {"type": "math_number", "id": "4", "fields": {"NUM": 3}}},
        "DO": {"block": {"type": "controls_flow_statements", "id": "br", "fields": {"FLOW": "BREAK"}}}}}},
    "ELSE": {"block": {"type": "controls_flow_statements", "id": "br2", "fields": {"FLOW": "CONTINUE"}}}
  }}]}`
	got, s := generate(t, "uno", src)
	want := `  if ((1 + 2) * 3 < millis()) {
    for (int count = 0; count < 3; count++) {
      break;
    }
  } else {
    // continue outside of a loop is ignored
  }
`
	if !strings.Contains(got, want) {
		t.Fatalf("got:\n%s\nwant fragment:\n%s", got, want)
	}
	d := s.Diagnostics().Filter(diag.SevWarning)
	if len(d) != 1 || d[0].Code != diag.GenFlowOutsideLoop {
		t.Fatalf("diagnostics %+v", d)
	}
}

func TestProceduresWithPrototypes(t *testing.T) {
	src := `{"blocks": [
  {"type": "procedures_callnoreturn", "id": "call", "y": 0, "extraState": {"name": "blink", "params": ["times"]},
   "inputs": {"ARG0": {"block": {"type": "math_number", "id": "n", "fields": {"NUM": 2}}}}},
  {"type": "procedures_defreturn", "id": "def", "y": 100, "fields": {"NAME": "blink"},
   "extraState": {"params": [{"name": "times", "id": "v1"}]},
   "inputs": {
     "STACK": {"block": {"type": "time_delay", "id": "d", "inputs": {"MS": {"block": {"type": "variables_get", "id": "g", "fields": {"VAR": {"id": "v1"}}}}}}},
     "RETURN": {"block": {"type": "logic_boolean", "id": "b", "fields": {"BOOL": "TRUE"}}}}},
  {"type": "procedures_callnoreturn", "id": "bad", "y": 200, "extraState": {"name": "missing"}}
],
"variables": [{"name": "times", "id": "v1", "type": "Number"}]}`
	got, s := generate(t, "uno", src)
	for _, frag := range []string{
		"bool blink(int times);",
		"bool blink(int times) {\n  delay(times);\n  return true;\n}",
		"void loop() {\n  blink(2);\n  missing();\n}",
	} {
		if !strings.Contains(got, frag) {
			t.Fatalf("missing %q in:\n%s", frag, got)
		}
	}
	proto := strings.Index(got, "bool blink(int times);")
	def := strings.Index(got, "bool blink(int times) {")
	if proto > def {
		t.Fatalf("prototype after definition:\n%s", got)
	}
	d := s.Diagnostics().Filter(diag.SevWarning)
	if len(d) != 1 || d[0].Code != diag.GenUnresolvedCall {
		t.Fatalf("diagnostics %+v", d)
	}
}

func TestVariableTypesFromFirstAssignment(t *testing.T) {
	src := `{"blocks": [
  {"type": "variables_set", "id": "a", "fields": {"VAR": "label"},
   "inputs": {"VALUE": {"block": {"type": "text", "id": "t", "fields": {"TEXT": "x"}}}},
   "next": {"block": {"type": "variables_set", "id": "b", "fields": {"VAR": "ratio"},
     "inputs": {"VALUE": {"block": {"type": "math_number", "id": "n", "fields": {"NUM": 0.5}}}},
     "next": {"block": {"type": "variables_set", "id": "c", "fields": {"VAR": "label"},
       "inputs": {"VALUE": {"block": {"type": "math_number", "id": "m", "fields": {"NUM": 3}}}}}}}}}
]}`
	got, _ := generate(t, "uno", src)
	for _, frag := range []string{`String label = "";`, "float ratio = 0.0;", "label = 3;"} {
		if !strings.Contains(got, frag) {
			t.Fatalf("missing %q in:\n%s", frag, got)
		}
	}
}

func TestServoAndDHTDependencies(t *testing.T) {
	src := `{"blocks": [
  {"type": "servo_write", "id": "sv", "fields": {"PIN": "13"},
   "inputs": {"ANGLE": {"block": {"type": "dht_read", "id": "dh", "fields": {"PIN": "4", "SENSOR": "DHT11"}}}}}
]}`
	got, s := generate(t, "esp32dev", src)
	deps := s.Dependencies()
	want := []string{"Adafruit Unified Sensor", "DHT sensor library", "ESP32Servo"}
	if strings.Join(deps, "|") != strings.Join(want, "|") {
		t.Fatalf("deps = %q", deps)
	}
	for _, frag := range []string{"#include <ESP32Servo.h>", "#include <DHT.h>", "Servo servo_13;", "DHT dht_4(4, DHT11);",
		"servo_13.write(dht_4.readTemperature());"} {
		if !strings.Contains(got, frag) {
			t.Fatalf("missing %q in:\n%s", frag, got)
		}
	}
	if strings.Contains(got, "ESP32Servo\n") {
		t.Fatalf("dependency ids must not be inlined")
	}
}

func TestNegationNeverFormsDecrement(t *testing.T) {
	src := `{"blocks": [{"type": "variables_set", "id": "s", "fields": {"VAR": "x"},
  "inputs": {"VALUE": {"block": {"type": "math_single", "id": "n1", "fields": {"OP": "NEG"},
    "inputs": {"NUM": {"block": {"type": "math_number", "id": "k", "fields": {"NUM": "-5"}}}}}}},
  "next": {"block": {"type": "variables_set", "id": "s2", "fields": {"VAR": "y"},
    "inputs": {"VALUE": {"block": {"type": "math_single", "id": "n2", "fields": {"OP": "NEG"},
      "inputs": {"NUM": {"block": {"type": "math_single", "id": "n3", "fields": {"OP": "NEG"},
        "inputs": {"NUM": {"block": {"type": "variables_get", "id": "g", "fields": {"VAR": "x"}}}}}}}}}}}}}
}]}`
	got, _ := generate(t, "uno", src)
	if strings.Contains(got, "--") {
		t.Fatalf("decrement in output:\n%s", got)
	}
	if !strings.Contains(got, "  x = -(-5);\n") || !strings.Contains(got, "  y = -(-x);\n") {
		t.Fatalf("got:\n%s", got)
	}
}

func TestPinModeFollowsLastAssertion(t *testing.T) {
	src := `{"blocks": [
  {"type": "io_pinmode", "id": "m1", "fields": {"PIN": "13", "MODE": "OUTPUT"},
   "next": {"block": {"type": "io_pinmode", "id": "m2", "fields": {"PIN": "13", "MODE": "INPUT"},
     "next": {"block": {"type": "io_pinmode", "id": "m3", "fields": {"PIN": "13", "MODE": "OUTPUT"}}}}}}
]}`
	got, s := generate(t, "uno", src)
	if mode, _ := s.Pins.Mode("13"); mode != "OUTPUT" {
		t.Fatalf("tracker mode = %s", mode)
	}
	want := "  pinMode(13, INPUT);\n  pinMode(13, OUTPUT);\n}"
	if !strings.Contains(got, want) {
		t.Fatalf("got:\n%s\nwant fragment:\n%s", got, want)
	}
	if n := strings.Count(got, "pinMode(13, OUTPUT);"); n != 1 {
		t.Fatalf("pinMode(13, OUTPUT) appears %d times:\n%s", n, got)
	}
	if d := s.Diagnostics().Filter(diag.SevWarning); len(d) != 2 {
		t.Fatalf("diagnostics %+v", d)
	}
}

func TestNonFiniteNumberIsRejected(t *testing.T) {
	for _, num := range []string{"NaN", "Inf", "-Infinity"} {
		src := `{"blocks": [{"type": "variables_set", "id": "s", "fields": {"VAR": "x"},
  "inputs": {"VALUE": {"block": {"type": "math_number", "id": "k", "fields": {"NUM": "` + num + `"}}}}}]}`
		got, s := generate(t, "uno", src)
		if strings.Contains(got, "x = "+num+";") {
			t.Fatalf("%s emitted as a literal:\n%s", num, got)
		}
		d := s.Diagnostics().Filter(diag.SevWarning)
		if len(d) != 1 || d[0].Code != diag.GenRuleFailed || d[0].Block != "k" {
			t.Fatalf("%s: diagnostics %+v", num, d)
		}
	}
}
