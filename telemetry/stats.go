package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a census window.
type WindowStats struct {
	WindowStartTick int `csv:"-"`
	WindowEndTick   int `csv:"window_end"`

	// Population at window end
	Alive   int `csv:"alive"`
	Carrion int `csv:"carrion"`
	Decoys  int `csv:"decoys"`
	Species int `csv:"species"`

	// Per-faction live counts, by dominant colour channel
	Red   int `csv:"red"`
	Green int `csv:"green"`
	Blue  int `csv:"blue"`

	// Events during window
	Births  int `csv:"births"`
	Deaths  int `csv:"deaths"`
	Eats    int `csv:"eats"`
	Removed int `csv:"removed"`

	// Combat
	Attacks int     `csv:"attacks"`
	Hits    int     `csv:"hits"`
	HitRate float64 `csv:"hit_rate"`

	// Vitals of living creatures, as fractions of their maxima
	HealthMean float64 `csv:"health_mean"`
	HealthStd  float64 `csv:"health_std"`
	HealthP10  float64 `csv:"health_p10"`
	HealthP50  float64 `csv:"health_p50"`
	HealthP90  float64 `csv:"health_p90"`
	EnergyMean float64 `csv:"energy_mean"`
	EnergyStd  float64 `csv:"energy_std"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`
	AgeP50     float64 `csv:"age_p50"`
}

// Health returns the health distribution.
func (s WindowStats) Health() Summary {
	return Summary{Mean: s.HealthMean, Std: s.HealthStd, P10: s.HealthP10, P50: s.HealthP50, P90: s.HealthP90}
}

// Energy returns the energy distribution.
func (s WindowStats) Energy() Summary {
	return Summary{Mean: s.EnergyMean, Std: s.EnergyStd, P10: s.EnergyP10, P50: s.EnergyP50, P90: s.EnergyP90}
}

// Summary describes a sample distribution.
type Summary struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// Summarize computes mean, standard deviation and percentiles of values.
// values is sorted in place. An empty sample yields the zero Summary.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sort.Float64s(values)
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		std = 0
	}
	return Summary{
		Mean: mean,
		Std:  std,
		P10:  Percentile(values, 0.10),
		P50:  Percentile(values, 0.50),
		P90:  Percentile(values, 0.90),
	}
}

// Percentile returns the p-th quantile of a sorted slice, or 0 if it is
// empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

func (s Summary) group(name string) slog.Attr {
	return slog.Group(name,
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("p10", s.P10),
		slog.Float64("p50", s.P50),
		slog.Float64("p90", s.P90),
	)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartTick),
		slog.Int("window_end", s.WindowEndTick),
		slog.Int("alive", s.Alive),
		slog.Int("carrion", s.Carrion),
		slog.Int("decoys", s.Decoys),
		slog.Int("species", s.Species),
		slog.Int("red", s.Red),
		slog.Int("green", s.Green),
		slog.Int("blue", s.Blue),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("eats", s.Eats),
		slog.Int("removed", s.Removed),
		slog.Int("attacks", s.Attacks),
		slog.Int("hits", s.Hits),
		slog.Float64("hit_rate", s.HitRate),
		s.Health().group("health"),
		s.Energy().group("energy"),
		slog.Float64("age_p50", s.AgeP50),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
