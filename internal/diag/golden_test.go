package diag

import "testing"

func TestFormatGolden(t *testing.T) {
	diags := []Diagnostic{
		NewWarning(PinModeConflict, "b2", "pin 13 switched\nfrom OUTPUT to INPUT").
			WithNote("b1", "OUTPUT declared here"),
		New(SevInfo, GenMissingInput, "", "input A is empty"),
	}

	expected := "warning PIN2001 b2 pin 13 switched from OUTPUT to INPUT\n" +
		"note PIN2001 b1 OUTPUT declared here\n" +
		"info GEN1002 - input A is empty"

	if got := FormatGolden(diags, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
	if got := FormatGolden(diags, false); got != "warning PIN2001 b2 pin 13 switched from OUTPUT to INPUT\ninfo GEN1002 - input A is empty" {
		t.Fatalf("notes should be skipped, got:\n%s", got)
	}
}

func TestBagLimitAndFilter(t *testing.T) {
	bag := NewBag(2)
	if !bag.Add(NewWarning(PWMResolutionAdjusted, "a", "x")) {
		t.Fatal("first add rejected")
	}
	bag.Add(New(SevInfo, PWMInfo, "a", "y"))
	if bag.Add(NewError(StrCycle, "b", "z")) {
		t.Fatal("add beyond limit must be rejected")
	}
	if bag.Len() != 2 || bag.HasErrors() || !bag.HasWarnings() {
		t.Fatalf("unexpected bag state: len=%d errors=%v warnings=%v", bag.Len(), bag.HasErrors(), bag.HasWarnings())
	}
	if got := bag.Filter(SevWarning); len(got) != 1 || got[0].Code != PWMResolutionAdjusted {
		t.Fatalf("filter returned %+v", got)
	}
}

func TestNewBagClampsLimit(t *testing.T) {
	if got := NewBag(1 << 20).Cap(); got != 65535 {
		t.Fatalf("cap = %d, want 65535", got)
	}
	if got := NewBag(-1).Cap(); got != 0 {
		t.Fatalf("cap = %d, want 0", got)
	}
}

func TestDedupReporterKeepsFirst(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	ReportWarning(r, PWMTimerShared, "p", "same").Emit()
	ReportWarning(r, PWMTimerShared, "p", "same").Emit()
	ReportWarning(r, PWMTimerShared, "q", "same").Emit()
	if bag.Len() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", bag.Len())
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(10)
	b := ReportInfo(BagReporter{Bag: bag}, GenInfo, "x", "hello").WithNote("y", "there")
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("expected single emission, got %d", bag.Len())
	}
	if d := bag.Items()[0]; len(d.Notes) != 1 || d.Notes[0].Block != "y" {
		t.Fatalf("note lost: %+v", d)
	}
}

func TestCodeID(t *testing.T) {
	cases := map[Code]string{
		GenUnknownBlock:      "GEN1001",
		PinModeConflict:      "PIN2001",
		PWMChannelsExhausted: "PWM3002",
		StrCycle:             "STR4001",
		PrjUnknownBoard:      "PRJ5002",
		UnknownCode:          "E0000",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Errorf("%d.ID() = %q, want %q", code, got, want)
		}
	}
}
