package simulator

import (
	"math"
	"time"

	"github.com/raterudder/solartracker/pkg/types"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultStepsPerDay assumes one-minute steps.
const DefaultStepsPerDay = 24 * 60

// DailyAverages splits records into consecutive blocks of stepsPerDay and returns the mean
// energy of each full block. A trailing partial block is dropped. Blocks are not aligned to
// calendar days.
func DailyAverages(records []types.Record, stepsPerDay int) []types.DailyAverage {
	if stepsPerDay <= 0 {
		return nil
	}
	days := len(records) / stepsPerDay
	out := make([]types.DailyAverage, 0, days)
	energy := make([]float64, stepsPerDay)
	for d := 0; d < days; d++ {
		for i, r := range records[d*stepsPerDay : (d+1)*stepsPerDay] {
			energy[i] = r.Energy
		}
		out = append(out, types.DailyAverage{
			Day:    d,
			Energy: stat.Mean(energy, nil),
		})
	}
	return out
}

// Summary describes a whole run.
type Summary struct {
	Count      int       `json:"count"`
	Mean       float64   `json:"mean"`
	Peak       float64   `json:"peak"`
	PeakTime   time.Time `json:"peakTime"`
	NaNRecords int       `json:"nanRecords,omitempty"`
}

// Summarize computes the mean and peak energy of records. NaN and infinite values are
// counted in NaNRecords and skipped.
func Summarize(records []types.Record) Summary {
	s := Summary{Count: len(records)}
	energy := make([]float64, 0, len(records))
	idx := make([]int, 0, len(records))
	for i, r := range records {
		if math.IsNaN(r.Energy) || math.IsInf(r.Energy, 0) {
			s.NaNRecords++
			continue
		}
		energy = append(energy, r.Energy)
		idx = append(idx, i)
	}
	if len(energy) == 0 {
		return s
	}
	s.Mean = stat.Mean(energy, nil)
	peak := floats.MaxIdx(energy)
	s.Peak = energy[peak]
	s.PeakTime = records[idx[peak]].Time
	return s
}
