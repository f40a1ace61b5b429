package analysis

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alan-christopher/qkdsim/bb84"
	"github.com/alan-christopher/qkdsim/bb84/network"
)

func TestRateGrid(t *testing.T) {
	g := RateGrid(0.05)
	require.Len(t, g, 21)
	assert.Equal(t, 0.0, g[0])
	assert.InDelta(t, 0.5, g[10], 1e-12)
	assert.Equal(t, 1.0, g[20])

	assert.Equal(t, []float64{0, 0.5, 1}, RateGrid(0.5))
	assert.Equal(t, []float64{0, 1}, RateGrid(0))
	assert.Len(t, DefaultRates, 21)
}

func TestSweep(t *testing.T) {
	res, err := Sweep(SweepOpts{
		Qubits: 1000,
		Trials: 10,
		Rates:  RateGrid(0.25),
		Seed:   42,
	})
	require.NoError(t, err)
	require.Len(t, res.Points, 5)
	assert.Equal(t, bb84.DefaultThreshold, res.Threshold)

	assert.Zero(t, res.Baseline(), "noiseless unattacked links never disagree")
	assert.Zero(t, res.Points[0].DetectionRate)
	assert.InDelta(t, 0.25, res.Points[4].MeanQBER, 0.03)
	assert.GreaterOrEqual(t, res.Points[4].DetectionRate, 0.9)
	for _, pt := range res.Points {
		assert.Len(t, pt.QBERs, 10)
		assert.GreaterOrEqual(t, pt.StdQBER, 0.0)
	}

	assert.Greater(t, res.Correlation, 0.95)
	assert.InDelta(t, 0.25, res.Slope, 0.05)
	assert.InDelta(t, 0, res.Intercept, 0.03)
	assert.Greater(t, res.RSquared, 0.9)
	assert.Greater(t, res.Crossing, 0.0)
	assert.LessOrEqual(t, res.Crossing, 0.75)
}

func TestSweepReproducible(t *testing.T) {
	opts := SweepOpts{Qubits: 200, Trials: 3, Rates: []float64{0.3, 0.9}, Seed: 9}
	a, err := Sweep(opts)
	require.NoError(t, err)
	b, err := Sweep(opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSweepDegenerateFit(t *testing.T) {
	res, err := Sweep(SweepOpts{Qubits: 100, Trials: 2, Rates: []float64{0, 0}})
	require.NoError(t, err)
	assert.Zero(t, res.Correlation)
	assert.Zero(t, res.Slope)
	assert.Equal(t, -1.0, res.Crossing)
}

func TestSweepErrors(t *testing.T) {
	tcs := []struct {
		name string
		opts SweepOpts
	}{
		{"negative qubits", SweepOpts{Qubits: -1}},
		{"negative trials", SweepOpts{Trials: -2}},
		{"empty rates", SweepOpts{Rates: []float64{}}},
		{"rate above one", SweepOpts{Rates: []float64{0.5, 1.5}}},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Sweep(tc.opts)
			require.ErrorIs(t, err, bb84.ErrInvalidInput)
		})
	}
}

func TestClassify(t *testing.T) {
	tcs := []struct {
		name     string
		mean     float64
		std      float64
		variable bool
		want     ThreatStatus
	}{
		{"clean", 0, 0, false, StatusSecure},
		{"just below suspicious", 0.049, 0, false, StatusSecure},
		{"suspicious", 0.05, 0, false, StatusSuspicious},
		{"detected", 0.11, 0, false, StatusDetected},
		{"obvious", 0.15, 0, false, StatusObvious},
		{"fixed rate ignores spread", 0.2, 0.1, false, StatusObvious},
		{"variable and unstable", 0.02, 0.06, true, StatusUnstable},
		{"variable but steady", 0.02, 0.01, true, StatusSecure},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.mean, tc.std, tc.variable))
		})
	}
}

func TestThreatScenarios(t *testing.T) {
	res, err := ThreatScenarios(1000, 8, rand.New(rand.NewSource(17)))
	require.NoError(t, err)
	require.Len(t, res, len(Threats))

	byName := make(map[string]ThreatResult)
	for _, tr := range res {
		byName[tr.Threat.Name] = tr
		assert.Len(t, tr.QBERs, 8)
	}
	assert.Equal(t, StatusSecure, byName["no_attack"].Status)
	assert.Zero(t, byName["no_attack"].MeanQBER)
	assert.Less(t, byName["stealth"].MeanQBER, SuspiciousBound)
	assert.Equal(t, StatusObvious, byName["aggressive"].Status)
	assert.InDelta(t, 1.0, byName["aggressive"].MeanRate, 1e-12)
	assert.Less(t, byName["stealth"].MeanQBER, byName["passive"].MeanQBER)
	assert.Less(t, byName["passive"].MeanQBER, byName["aggressive"].MeanQBER)

	v := byName["variable"]
	assert.Greater(t, v.MeanRate, 0.0)
	assert.Less(t, v.MeanRate, 1.0)
	assert.Equal(t, Classify(v.MeanQBER, v.StdQBER, true), v.Status)

	_, err = ThreatScenarios(0, 5, rand.New(rand.NewSource(1)))
	require.ErrorIs(t, err, bb84.ErrInvalidInput)
	_, err = ThreatScenarios(100, 5, nil)
	require.Error(t, err)
}

func link(receiver, attacker string, qber float64, secure bool) bb84.LinkResult {
	return bb84.LinkResult{
		Receiver:   receiver,
		Attacker:   attacker,
		Assessment: bb84.Assessment{QBER: qber, Secure: secure},
	}
}

func testResults() []network.NetworkResult {
	return []network.NetworkResult{
		{
			Scenario: network.MultipleAttackersMultipleTargets,
			Links: []bb84.LinkResult{
				link("Bob", "Eve & Mallory", 0.3, false),
				link("Charlie", "Mallory", 0.08, true),
				link("Dave", "", 0, true),
			},
			TotalLinks: 3, SecureCount: 2, CompromisedCount: 1,
		},
		{
			Scenario: network.SingleAttackerSingleTarget,
			Links: []bb84.LinkResult{
				link("Bob", "", 0, true),
				link("Charlie", "Eve", 0.2, false),
			},
			TotalLinks: 2, SecureCount: 1, CompromisedCount: 1,
		},
		{
			Scenario: network.MultipleAttackersMultipleTargets,
			Links: []bb84.LinkResult{
				link("Bob", "", 0, true),
			},
			TotalLinks: 1, SecureCount: 1,
		},
	}
}

func TestAttackers(t *testing.T) {
	got := Attackers(testResults())
	require.Len(t, got, 2)

	eve, mallory := got[0], got[1]
	assert.Equal(t, "Eve", eve.ID)
	assert.Equal(t, 2, eve.LinksAttacked)
	assert.Equal(t, 2, eve.LinksCompromised)
	assert.InDelta(t, 1.0, eve.SuccessRate, 1e-12)
	assert.InDelta(t, 0.25, eve.MeanQBER, 1e-12)

	assert.Equal(t, "Mallory", mallory.ID)
	assert.Equal(t, 2, mallory.LinksAttacked)
	assert.Equal(t, 1, mallory.LinksCompromised)
	assert.InDelta(t, 0.5, mallory.SuccessRate, 1e-12)
	assert.InDelta(t, 0.19, mallory.MeanQBER, 1e-12)

	assert.Empty(t, Attackers(nil))
}

func TestOverall(t *testing.T) {
	s := Overall(testResults())
	assert.Equal(t, Summary{
		Runs:               3,
		TotalLinks:         6,
		SecureLinks:        4,
		CompromisedLinks:   2,
		SecurityPercentage: 100 * 4.0 / 6,
	}, s)
	assert.Equal(t, Summary{}, Overall(nil))
}

func TestByScenario(t *testing.T) {
	got := ByScenario(testResults())
	require.Len(t, got, 2)
	assert.Equal(t, network.SingleAttackerSingleTarget, got[0].Scenario)
	assert.Equal(t, 1, got[0].Runs)
	assert.InDelta(t, 50, got[0].SecurityPercentage, 1e-9)

	assert.Equal(t, network.MultipleAttackersMultipleTargets, got[1].Scenario)
	assert.Equal(t, 2, got[1].Runs)
	assert.Equal(t, 4, got[1].TotalLinks)
	assert.InDelta(t, 75, got[1].SecurityPercentage, 1e-9)
}
