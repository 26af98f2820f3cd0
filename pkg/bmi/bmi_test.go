package bmi

import (
	"errors"
	"math"
	"testing"
)

func TestEvaluate_ReferenceScenario(t *testing.T) {
	e := New()

	rep, err := e.Evaluate("alice.test", Input{Weight: 52, Height: 127.0, Permit: true})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if rep.Rounded != 32 {
		t.Errorf("Expected rounded BMI 32, got %d", rep.Rounded)
	}
	if rep.Category != Obese {
		t.Errorf("Expected Obese, got %s", rep.Category)
	}
	if rep.Record == nil {
		t.Fatal("Expected a record for a permitted submission")
	}
	if rep.Record.Owner != "alice.test" {
		t.Errorf("Record owner mismatch: %s", rep.Record.Owner)
	}

	expected := []string{
		"alice.test You are Obese",
		"BMI: 32",
		"Permission Accepted",
		"BIOSECURITY MEASURES ARE IN EFFECT",
	}
	if len(rep.Lines) != len(expected) {
		t.Fatalf("Expected %d lines, got %d: %v", len(expected), len(rep.Lines), rep.Lines)
	}
	for i, want := range expected {
		if rep.Lines[i] != want {
			t.Errorf("Line %d: expected %q, got %q", i, want, rep.Lines[i])
		}
	}
}

func TestEvaluate_Formula(t *testing.T) {
	e := New()

	rep, err := e.Evaluate("bob", Input{Weight: 70, Height: 175})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	want := 70.0 / (1.75 * 1.75)
	if math.Abs(rep.BMI-want) > 1e-9 {
		t.Errorf("Expected BMI %v, got %v", want, rep.BMI)
	}
	if rep.Category != Normal {
		t.Errorf("Expected Normal, got %s", rep.Category)
	}
}

func TestClassify_Boundaries(t *testing.T) {
	cases := []struct {
		bmi  float64
		want Category
	}{
		{10, Underweight},
		{18.49, Underweight},
		{18.5, Normal},
		{24.99, Normal},
		{25, Overweight},
		{29.99, Overweight},
		{30, Obese},
		{50, Obese},
	}

	for _, c := range cases {
		if got := Classify(c.bmi); got != c.want {
			t.Errorf("Classify(%v): expected %s, got %s", c.bmi, c.want, got)
		}
	}
}

func TestEvaluate_NoPermitNoRecord(t *testing.T) {
	e := New()

	rep, err := e.Evaluate("carol", Input{Weight: 92, Height: 136, Permit: false})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if rep.Record != nil {
		t.Error("No record should be produced without permission")
	}
	if len(rep.Lines) != 2 {
		t.Errorf("Expected 2 lines without permission, got %v", rep.Lines)
	}
}

func TestEvaluate_AdvisoryOnlyAtThreshold(t *testing.T) {
	e := New()

	rep, err := e.Evaluate("dave", Input{Weight: 70, Height: 175, Permit: true})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if rep.Record == nil {
		t.Fatal("Expected a record")
	}
	for _, line := range rep.Lines {
		if line == "BIOSECURITY MEASURES ARE IN EFFECT" {
			t.Error("Advisory line should not appear below the threshold")
		}
	}

	// Lowering the threshold pulls the advisory line in.
	e.AdvisoryThreshold = Normal
	rep, err = e.Evaluate("dave", Input{Weight: 70, Height: 175, Permit: true})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if rep.Lines[len(rep.Lines)-1] != "BIOSECURITY MEASURES ARE IN EFFECT" {
		t.Errorf("Expected advisory line with lowered threshold, got %v", rep.Lines)
	}
}

func TestParseCategory(t *testing.T) {
	for _, name := range []string{"Underweight", "Normal", "Overweight", "Obese"} {
		c, err := ParseCategory(name)
		if err != nil || string(c) != name {
			t.Errorf("ParseCategory(%q) failed: %v, %v", name, c, err)
		}
	}

	if _, err := ParseCategory("Severe"); err == nil {
		t.Error("Expected an error for an unknown category")
	}
	if _, err := ParseCategory(""); err == nil {
		t.Error("Expected an error for an empty category")
	}
}

func TestEvaluate_InvalidInput(t *testing.T) {
	e := New()

	bad := []Input{
		{Weight: 0, Height: 170},
		{Weight: -5, Height: 170},
		{Weight: 70, Height: 0},
		{Weight: 70, Height: -170},
		{Weight: math.NaN(), Height: 170},
		{Weight: 70, Height: math.Inf(1)},
		// Positive but degenerate: the squared height underflows to zero
		// and the division blows up to +Inf.
		{Weight: 52, Height: 1e-160},
		{Weight: math.MaxFloat64, Height: 1e-30},
	}

	for _, in := range bad {
		rep, err := e.Evaluate("eve", in)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Input %+v: expected ErrInvalidInput, got %v", in, err)
		}
		if rep.Record != nil || len(rep.Lines) != 0 {
			t.Errorf("Input %+v: invalid input must produce no lines and no record", in)
		}
	}
}

func TestEvaluate_ExtremeFiniteInputs(t *testing.T) {
	e := New()

	// A microscopic height keeps the BMI finite but far beyond the int
	// range; the truncated value must clamp instead of overflowing.
	rep, err := e.Evaluate("gabe", Input{Weight: 52, Height: 1e-8})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if math.IsInf(rep.BMI, 0) || math.IsNaN(rep.BMI) {
		t.Fatalf("Expected a finite BMI, got %v", rep.BMI)
	}
	if rep.Rounded != math.MaxInt {
		t.Errorf("Expected clamped rounded value, got %d", rep.Rounded)
	}
	if rep.Rounded < 0 {
		t.Errorf("Rounded value must never go negative, got %d", rep.Rounded)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	e := New()
	in := Input{Weight: 52, Height: 127, Permit: true}

	a, err := e.Evaluate("frank", in)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	b, err := e.Evaluate("frank", in)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if a.BMI != b.BMI || a.Category != b.Category || a.Rounded != b.Rounded {
		t.Error("Identical inputs must evaluate identically")
	}
}
