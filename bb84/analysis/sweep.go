// Package analysis derives statistics from repeated BB84 sessions: how the
// error rate responds to eavesdropping, how fixed threat profiles are
// classified, and how attackers fare across network runs.
package analysis

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/alan-christopher/qkdsim/bb84"
	"github.com/alan-christopher/qkdsim/bb84/photon"
	"github.com/alan-christopher/qkdsim/internal/logging"
)

var logger = logging.Logger("analysis")

var (
	DefaultQubits = 100
	DefaultTrials = 10
	// DefaultRates spans [0, 1] in steps of 0.05.
	DefaultRates = RateGrid(0.05)
)

// RateGrid returns the intercept rates 0, step, 2*step, ... up to and
// including 1.
func RateGrid(step float64) []float64 {
	if step <= 0 || step > 1 {
		return []float64{0, 1}
	}
	n := int(math.Round(1 / step))
	r := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		r = append(r, min(1, float64(i)*step))
	}
	return r
}

// SweepOpts configures Sweep. Zero fields take the package defaults.
type SweepOpts struct {
	Qubits int
	Trials int
	Rates  []float64

	// Noise and Threshold are passed to every link, see bb84.LinkOpts.
	Noise     float64
	Threshold float64

	// Seed seeds the generator shared by every trial.
	Seed int64
}

func (o SweepOpts) withDefaults() (SweepOpts, error) {
	if o.Qubits == 0 {
		o.Qubits = DefaultQubits
	}
	if o.Trials == 0 {
		o.Trials = DefaultTrials
	}
	if o.Rates == nil {
		o.Rates = DefaultRates
	}
	if o.Threshold == 0 {
		o.Threshold = bb84.DefaultThreshold
	}
	if o.Qubits < 0 || o.Trials < 0 {
		return o, fmt.Errorf("%w: qubits (%d) and trials (%d) must be positive", bb84.ErrInvalidInput, o.Qubits, o.Trials)
	}
	if len(o.Rates) == 0 {
		return o, fmt.Errorf("%w: no intercept rates", bb84.ErrInvalidInput)
	}
	for _, p := range o.Rates {
		if !(p >= 0 && p <= 1) {
			return o, fmt.Errorf("%w: intercept rate %v outside [0, 1]", bb84.ErrInvalidInput, p)
		}
	}
	return o, nil
}

// A SweepPoint summarizes the trials run at one intercept rate.
type SweepPoint struct {
	Rate     float64 `json:"rate"`
	MeanQBER float64 `json:"mean_qber"`
	// StdQBER is the population standard deviation of the trial QBERs.
	StdQBER float64 `json:"std_qber"`
	// DetectionRate is the fraction of trials assessed insecure.
	DetectionRate float64   `json:"detection_rate"`
	QBERs         []float64 `json:"qbers"`
}

// A SweepResult relates intercept rate to observed QBER.
type SweepResult struct {
	Qubits    int          `json:"qubits"`
	Trials    int          `json:"trials"`
	Threshold float64      `json:"threshold"`
	Points    []SweepPoint `json:"points"`

	// Correlation is the Pearson correlation between rate and mean QBER
	// over all points, 0 when either is constant.
	Correlation float64 `json:"correlation"`
	// Slope and Intercept fit MeanQBER = Intercept + Slope*Rate by least
	// squares; RSquared is the fit's coefficient of determination.
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`

	// Crossing is the lowest rate whose mean QBER reaches Threshold, or -1
	// if none does.
	Crossing float64 `json:"crossing"`
}

// Baseline returns the mean QBER of the first point.
func (r SweepResult) Baseline() float64 {
	if len(r.Points) == 0 {
		return 0
	}
	return r.Points[0].MeanQBER
}

// Sweep runs opts.Trials links of opts.Qubits qubits at every intercept rate
// and fits the relationship between rate and error.
func Sweep(opts SweepOpts) (SweepResult, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return SweepResult{}, err
	}
	r := rand.New(rand.NewSource(opts.Seed))
	res := SweepResult{
		Qubits:    opts.Qubits,
		Trials:    opts.Trials,
		Threshold: opts.Threshold,
		Points:    make([]SweepPoint, 0, len(opts.Rates)),
		Crossing:  -1,
	}
	for _, p := range opts.Rates {
		pt := SweepPoint{Rate: p, QBERs: make([]float64, 0, opts.Trials)}
		detected := 0
		for i := 0; i < opts.Trials; i++ {
			lr, err := runTrial(r, opts.Qubits, p, opts.Noise, opts.Threshold)
			if err != nil {
				return SweepResult{}, fmt.Errorf("sweeping rate %v: %w", p, err)
			}
			pt.QBERs = append(pt.QBERs, lr.QBER())
			if !lr.Secure() {
				detected++
			}
		}
		pt.MeanQBER, pt.StdQBER = stat.PopMeanStdDev(pt.QBERs, nil)
		pt.DetectionRate = float64(detected) / float64(opts.Trials)
		if res.Crossing < 0 && pt.MeanQBER >= opts.Threshold {
			res.Crossing = p
		}
		res.Points = append(res.Points, pt)
		logger.Debug("sweep point", "rate", p, "mean_qber", pt.MeanQBER, "std_qber", pt.StdQBER)
	}
	res.fit()
	return res, nil
}

func (r *SweepResult) fit() {
	if len(r.Points) < 2 {
		return
	}
	xs := make([]float64, len(r.Points))
	ys := make([]float64, len(r.Points))
	for i, pt := range r.Points {
		xs[i], ys[i] = pt.Rate, pt.MeanQBER
	}
	if stat.Variance(xs, nil) == 0 {
		return
	}
	r.Intercept, r.Slope = stat.LinearRegression(xs, ys, nil, false)
	if stat.Variance(ys, nil) == 0 {
		return
	}
	r.Correlation = stat.Correlation(xs, ys, nil)
	r.RSquared = stat.RSquared(xs, ys, nil, r.Intercept, r.Slope)
}

// runTrial runs one link at intercept rate p; p == 0 means no attacker.
func runTrial(r *rand.Rand, qubits int, p, noise, threshold float64) (bb84.LinkResult, error) {
	opts := bb84.LinkOpts{
		Qubits:    qubits,
		Rand:      r,
		Noise:     noise,
		Threshold: threshold,
	}
	if p > 0 {
		opts.Attacker = &photon.Attacker{ID: "Eve", InterceptRate: p}
	}
	return bb84.RunLink(opts)
}
