package network

import (
	"fmt"
	"math/rand"

	qerrors "github.com/alan-christopher/qkdsim/internal/errors"
)

// ErrUnknownScenario is returned for scenario tags outside the closed set. It
// matches bb84.ErrInvalidInput.
var ErrUnknownScenario = qerrors.ErrUnknownScenario

// A Scenario selects how attackers are spread over the receivers of a run.
type Scenario int

const (
	// NoAttack leaves every link unattacked.
	NoAttack Scenario = iota
	// SingleAttackerSingleTarget puts one attacker on one receiver.
	SingleAttackerSingleTarget
	// SingleAttackerMultipleTargets puts one attacker on a random non-empty
	// subset of receivers.
	SingleAttackerMultipleTargets
	// MultipleAttackersSingleTargets puts two or more distinct attackers on
	// distinct receivers, one each.
	MultipleAttackersSingleTargets
	// MultipleAttackersMultipleTargets puts two or more distinct attackers on
	// random subsets of receivers; overlapping attackers coordinate.
	MultipleAttackersMultipleTargets
	// PartialCoverageRandom attacks each receiver independently with
	// probability CoverageProbability.
	PartialCoverageRandom

	numScenarios = iota
)

// CoverageProbability is the per-receiver attack probability of
// PartialCoverageRandom.
const CoverageProbability = 0.5

var scenarioNames = [numScenarios]string{
	NoAttack:                         "no_attack",
	SingleAttackerSingleTarget:       "single_attacker_single_target",
	SingleAttackerMultipleTargets:    "single_attacker_multiple_targets",
	MultipleAttackersSingleTargets:   "multiple_attackers_single_targets",
	MultipleAttackersMultipleTargets: "multiple_attackers_multiple_targets",
	PartialCoverageRandom:            "partial_coverage_random",
}

// Scenarios returns every scenario, in declaration order.
func Scenarios() []Scenario {
	r := make([]Scenario, numScenarios)
	for i := range r {
		r[i] = Scenario(i)
	}
	return r
}

// RandomScenario draws a scenario uniformly from r.
func RandomScenario(r *rand.Rand) Scenario {
	return Scenario(r.Intn(numScenarios))
}

func (s Scenario) valid() bool {
	return s >= 0 && s < numScenarios
}

// String returns the scenario's tag, e.g. "no_attack".
func (s Scenario) String() string {
	if !s.valid() {
		return fmt.Sprintf("Scenario(%d)", int(s))
	}
	return scenarioNames[s]
}

// ParseScenario returns the scenario with the given tag.
func ParseScenario(tag string) (Scenario, error) {
	for i, name := range scenarioNames {
		if name == tag {
			return Scenario(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScenario, tag)
}

// MarshalText implements encoding.TextMarshaler.
func (s Scenario) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownScenario, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scenario) UnmarshalText(b []byte) error {
	v, err := ParseScenario(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
