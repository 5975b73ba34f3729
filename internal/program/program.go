// Package program holds the pure periodization math: the 4-week
// percentage tables, plate rounding, and one-rep-max estimation. No I/O,
// no errors on well-formed input.
package program

import (
	"math"

	"github.com/claude/liftledger/internal/models"
)

// Epley-style coefficient: e1RM = weight × (1 + k × reps).
const epleyK = 0.0333

// scheme pairs per-set percentages of training max with target reps.
type scheme struct {
	percents []float64
	reps     []int
}

// Warmup is the same every week: 40/50/60% for 5/5/3.
var warmupScheme = scheme{
	percents: []float64{0.40, 0.50, 0.60},
	reps:     []int{5, 5, 3},
}

var workSchemes = map[int]scheme{
	1: {percents: []float64{0.65, 0.75, 0.85}, reps: []int{5, 5, 5}},
	2: {percents: []float64{0.70, 0.80, 0.90}, reps: []int{3, 3, 3}},
	3: {percents: []float64{0.75, 0.85, 0.95}, reps: []int{5, 3, 1}},
	// Deload: light triples of 5, no AMRAP.
	4: {percents: []float64{0.40, 0.50, 0.60}, reps: []int{5, 5, 5}},
}

// Prescription is one day's ordered set list: 3 warmups then 3 work sets.
type Prescription struct {
	Warmups  []models.SetRow `json:"warmups"`
	WorkSets []models.SetRow `json:"work_sets"`
}

// ValidWeek reports whether week is a position inside the 4-week block.
func ValidWeek(week int) bool {
	return week >= 1 && week <= 4
}

// AMRAPWeek reports whether the week's last work set is an AMRAP set.
// Week 4 is a deload and never produces a PR-eligible set.
func AMRAPWeek(week int) bool {
	return week >= 1 && week <= 3
}

// ForWeek computes the day's prescription from a training max. Weights
// are rounded to the unit's plate increment. The caller must validate
// week with ValidWeek first; passing anything else is a programming
// error, not a runtime condition.
func ForWeek(trainingMax float64, week int, unit models.Unit) Prescription {
	work := workSchemes[week]
	p := Prescription{
		Warmups:  rows(trainingMax, warmupScheme, unit, false),
		WorkSets: rows(trainingMax, work, unit, AMRAPWeek(week)),
	}
	return p
}

func rows(trainingMax float64, sc scheme, unit models.Unit, amrapLast bool) []models.SetRow {
	out := make([]models.SetRow, len(sc.percents))
	for i, pct := range sc.percents {
		out[i] = models.SetRow{
			Percent:    pct,
			Weight:     RoundForUnit(trainingMax*pct, unit),
			TargetReps: sc.reps[i],
			AMRAP:      amrapLast && i == len(sc.percents)-1,
		}
	}
	return out
}

// RoundForUnit rounds a raw weight to the unit's default plate increment.
func RoundForUnit(raw float64, unit models.Unit) float64 {
	return RoundToIncrement(raw, unit.PlateIncrement())
}

// RoundToIncrement rounds raw to the nearest multiple of increment, with
// halves rounding away from zero. Idempotent: rounding a rounded value
// returns it unchanged.
func RoundToIncrement(raw, increment float64) float64 {
	if increment <= 0 {
		return raw
	}
	return math.Round(raw/increment) * increment
}

// EstimateOneRepMax projects a maximal single from a submaximal set.
// At zero reps the estimate degrades to the lifted weight. Non-decreasing
// in both weight and reps for non-negative inputs.
func EstimateOneRepMax(weight float64, reps int) float64 {
	if reps <= 0 {
		return weight
	}
	return weight * (1 + epleyK*float64(reps))
}
