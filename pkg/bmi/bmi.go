// Package bmi implements the Body Mass Index evaluator at the heart of the
// Vitalix platform. It is a pure computation layer: it validates inputs,
// computes the index, classifies it, and describes what should happen next
// (log lines, an optional record) without performing any I/O itself.
package bmi

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/vitalix-dev/vitalix-bmi/pkg/schema"
)

// ErrInvalidInput is returned when weight or height is zero, negative, or
// not a finite number. No lines are produced and no record is built.
var ErrInvalidInput = errors.New("invalid input")

// Category is the BMI band a measurement falls into.
type Category string

const (
	Underweight Category = "Underweight"
	Normal      Category = "Normal"
	Overweight  Category = "Overweight"
	Obese       Category = "Obese"
)

// rank orders categories for threshold comparisons.
func (c Category) rank() int {
	switch c {
	case Underweight:
		return 0
	case Normal:
		return 1
	case Overweight:
		return 2
	case Obese:
		return 3
	}
	return -1
}

// AtLeast reports whether c is at or above the severity of other.
func (c Category) AtLeast(other Category) bool {
	return c.rank() >= other.rank()
}

// ParseCategory converts a configuration string into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if c.rank() < 0 {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Input is a single BMI submission.
// Weight is in kilograms. Height is in CENTIMETERS; the evaluator divides by
// 100 before squaring (weight=52, height=127.0 yields BMI ≈ 32).
type Input struct {
	Weight float64 `json:"weight"`
	Height float64 `json:"height"`
	Permit bool    `json:"permit"`
}

// Report is the full outcome of one evaluation.
// Lines holds the ordered human-readable output: the category line, the
// numeric line, and (when permitted) the permission and advisory lines.
// Record is non-nil only when the caller permitted persistence; storing it
// is the caller's job.
type Report struct {
	BMI      float64        `json:"bmi"`
	Rounded  int            `json:"rounded"`
	Category Category       `json:"category"`
	Lines    []string       `json:"lines"`
	Record   *schema.Record `json:"record,omitempty"`
}

// Evaluator computes and classifies BMI values.
// AdvisoryThreshold controls the band at which the biosecurity advisory line
// is emitted for permitted submissions.
type Evaluator struct {
	AdvisoryThreshold Category
}

// New returns an Evaluator with the advisory threshold at Obese.
func New() *Evaluator {
	return &Evaluator{AdvisoryThreshold: Obese}
}

// Classify maps a BMI value to its band. Lower bounds are inclusive:
// 18.5 is Normal, 25 is Overweight, 30 is Obese.
func Classify(bmi float64) Category {
	switch {
	case bmi < 18.5:
		return Underweight
	case bmi < 25:
		return Normal
	case bmi < 30:
		return Overweight
	default:
		return Obese
	}
}

// Evaluate validates the input, computes BMI = weight / (height/100)^2, and
// assembles the report. When in.Permit is set, the report carries a Record
// for the caller to persist and the permission lines are appended; when the
// category reaches the advisory threshold, the advisory line follows.
func (e *Evaluator) Evaluate(owner string, in Input) (Report, error) {
	if err := validate(in); err != nil {
		return Report{}, err
	}

	meters := in.Height / 100.0
	value := in.Weight / (meters * meters)
	// The division can overflow to +Inf for degenerate (but positive) heights.
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return Report{}, fmt.Errorf("%w: weight %v and height %v produce a non-finite BMI", ErrInvalidInput, in.Weight, in.Height)
	}
	cat := Classify(value)

	// Truncate toward zero, matching the integer the original contract
	// returned. Converting a float64 beyond the int range is
	// implementation-defined, so clamp first.
	rounded := math.MaxInt
	if value < float64(math.MaxInt) {
		rounded = int(value)
	}

	lines := []string{
		fmt.Sprintf("%s You are %s", owner, cat),
		fmt.Sprintf("BMI: %d", rounded),
	}

	rep := Report{
		BMI:      value,
		Rounded:  rounded,
		Category: cat,
		Lines:    lines,
	}

	if in.Permit {
		now := time.Now().UTC()
		rep.Record = &schema.Record{
			ID:        uuid.New().String(),
			Owner:     owner,
			Weight:    in.Weight,
			Height:    in.Height,
			BMI:       value,
			Category:  string(cat),
			CreatedAt: now,
			UpdatedAt: now,
		}
		rep.Lines = append(rep.Lines, "Permission Accepted")
		if cat.AtLeast(e.AdvisoryThreshold) {
			rep.Lines = append(rep.Lines, "BIOSECURITY MEASURES ARE IN EFFECT")
		}
	}

	return rep, nil
}

func validate(in Input) error {
	if in.Weight <= 0 || math.IsNaN(in.Weight) || math.IsInf(in.Weight, 0) {
		return fmt.Errorf("%w: weight must be a positive finite number, got %v", ErrInvalidInput, in.Weight)
	}
	if in.Height <= 0 || math.IsNaN(in.Height) || math.IsInf(in.Height, 0) {
		return fmt.Errorf("%w: height must be a positive finite number, got %v", ErrInvalidInput, in.Height)
	}
	return nil
}
