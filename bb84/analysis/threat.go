package analysis

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/alan-christopher/qkdsim/bb84"
)

// A ThreatStatus classifies the mean QBER a threat induces.
type ThreatStatus string

const (
	StatusSecure     ThreatStatus = "secure"
	StatusSuspicious ThreatStatus = "suspicious"
	StatusDetected   ThreatStatus = "detected"
	StatusObvious    ThreatStatus = "obvious"
	StatusUnstable   ThreatStatus = "unstable"
)

// Classification bounds on mean QBER. Each status covers the range below its
// bound; anything at or above DetectedBound is obvious.
var (
	SecureBound     = 0.05
	SuspiciousBound = 0.11
	DetectedBound   = 0.15
	// UnstableStd is the QBER standard deviation above which a variable
	// threat is unstable regardless of its mean.
	UnstableStd = 0.05
)

// A Threat is a fixed eavesdropping profile.
type Threat struct {
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
	// Variable threats draw a uniform rate in [0, 1) every trial and ignore
	// Rate.
	Variable bool `json:"variable"`
}

// Threats lists the profiles ThreatScenarios evaluates, mildest first.
var Threats = []Threat{
	{Name: "no_attack", Rate: 0},
	{Name: "stealth", Rate: 0.1},
	{Name: "passive", Rate: 0.5},
	{Name: "aggressive", Rate: 1.0},
	{Name: "variable", Variable: true},
}

// A ThreatResult summarizes the trials run against one threat.
type ThreatResult struct {
	Threat   Threat       `json:"threat"`
	MeanQBER float64      `json:"mean_qber"`
	StdQBER  float64      `json:"std_qber"`
	MeanRate float64      `json:"mean_rate"`
	Status   ThreatStatus `json:"status"`
	QBERs    []float64    `json:"qbers"`
}

// Classify returns the status of a threat with the given QBER statistics.
func Classify(mean, std float64, variable bool) ThreatStatus {
	if variable && std > UnstableStd {
		return StatusUnstable
	}
	switch {
	case mean < SecureBound:
		return StatusSecure
	case mean < SuspiciousBound:
		return StatusSuspicious
	case mean < DetectedBound:
		return StatusDetected
	default:
		return StatusObvious
	}
}

// ThreatScenarios runs trials links of qubits qubits against each of Threats
// and classifies the outcome.
func ThreatScenarios(qubits, trials int, r *rand.Rand) ([]ThreatResult, error) {
	if qubits <= 0 || trials <= 0 {
		return nil, fmt.Errorf("%w: qubits (%d) and trials (%d) must be positive", bb84.ErrInvalidInput, qubits, trials)
	}
	if r == nil {
		return nil, errors.New("must provide Rand")
	}
	res := make([]ThreatResult, 0, len(Threats))
	for _, th := range Threats {
		qbers := make([]float64, 0, trials)
		rates := make([]float64, 0, trials)
		for i := 0; i < trials; i++ {
			p := th.Rate
			if th.Variable {
				p = r.Float64()
			}
			lr, err := runTrial(r, qubits, p, 0, 0)
			if err != nil {
				return nil, fmt.Errorf("running threat %s: %w", th.Name, err)
			}
			qbers = append(qbers, lr.QBER())
			rates = append(rates, p)
		}
		tr := ThreatResult{Threat: th, QBERs: qbers, MeanRate: stat.Mean(rates, nil)}
		tr.MeanQBER, tr.StdQBER = stat.PopMeanStdDev(qbers, nil)
		tr.Status = Classify(tr.MeanQBER, tr.StdQBER, th.Variable)
		logger.Debug("threat evaluated", "threat", th.Name, "mean_qber", tr.MeanQBER, "status", tr.Status)
		res = append(res, tr)
	}
	return res, nil
}
