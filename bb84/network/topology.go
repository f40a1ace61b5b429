package network

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/alan-christopher/qkdsim/bb84"
)

// LabelSeparator joins the ids of coordinated attackers sharing a link.
const LabelSeparator = " & "

// CoordinationWeight scales the rate a second attacker adds to a link that is
// already attacked.
const CoordinationWeight = 0.5

// An Assignment describes the attack on a single link.
type Assignment struct {
	// Attackers lists the ids of every attacker on the link, in the order
	// they were assigned.
	Attackers []string
	// Rate is the effective intercept rate of the combined attack.
	Rate float64
}

// Label returns the combined attacker label, e.g. "Eve & Mallory".
func (a *Assignment) Label() string {
	return strings.Join(a.Attackers, LabelSeparator)
}

// ComposeRates returns the effective intercept rate when an attacker with
// rate added joins a link already intercepted at rate existing. Coordination
// always makes the attack worse than either attacker alone, but the second
// attacker only contributes half its rate.
func ComposeRates(existing, added float64) float64 {
	return min(1.0, existing+added*CoordinationWeight)
}

// A Topology is a resolved scenario: which receivers are attacked, by whom,
// and how hard.
type Topology struct {
	Scenario Scenario
	// Assignments maps receiver ids to their attack. Unattacked receivers
	// are absent.
	Assignments map[string]*Assignment
}

func newTopology(s Scenario) *Topology {
	return &Topology{Scenario: s, Assignments: make(map[string]*Assignment)}
}

// Assign puts attacker on receiver at rate. If the receiver is already
// attacked, the labels concatenate and the rates combine via ComposeRates.
func (t *Topology) Assign(receiver, attacker string, rate float64) {
	a, ok := t.Assignments[receiver]
	if !ok {
		t.Assignments[receiver] = &Assignment{Attackers: []string{attacker}, Rate: rate}
		return
	}
	a.Attackers = append(a.Attackers, attacker)
	a.Rate = ComposeRates(a.Rate, rate)
}

// ActiveAttackers returns the sorted, distinct ids of every assigned attacker.
func (t *Topology) ActiveAttackers() []string {
	seen := make(map[string]bool)
	r := []string{}
	for _, a := range t.Assignments {
		for _, id := range a.Attackers {
			if !seen[id] {
				seen[id] = true
				r = append(r, id)
			}
		}
	}
	sort.Strings(r)
	return r
}

// A resolver draws attack assignments over the engine's rosters.
type resolver struct {
	rand      *rand.Rand
	receivers []string
	attackers []string
	rateMin   float64
	rateMax   float64
}

func (r resolver) rate() float64 {
	return r.rateMin + r.rand.Float64()*(r.rateMax-r.rateMin)
}

func (r resolver) attacker() string {
	return r.attackers[r.rand.Intn(len(r.attackers))]
}

// subset returns a uniformly sized, uniformly chosen non-empty subset of
// receivers, in roster order.
func (r resolver) subset() []string {
	m := len(r.receivers)
	idx := r.rand.Perm(m)[:1+r.rand.Intn(m)]
	sort.Ints(idx)
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = r.receivers[j]
	}
	return out
}

func (r resolver) need(s Scenario, attackers, receivers int) error {
	if len(r.attackers) < attackers {
		return fmt.Errorf("%w: %v needs at least %d attackers, roster has %d",
			bb84.ErrInvalidInput, s, attackers, len(r.attackers))
	}
	if len(r.receivers) < receivers {
		return fmt.Errorf("%w: %v needs at least %d receivers, roster has %d",
			bb84.ErrInvalidInput, s, receivers, len(r.receivers))
	}
	return nil
}

// resolve draws a topology for s.
func (r resolver) resolve(s Scenario) (*Topology, error) {
	t := newTopology(s)
	switch s {
	case NoAttack:
		return t, nil

	case SingleAttackerSingleTarget:
		if err := r.need(s, 1, 1); err != nil {
			return nil, err
		}
		eve := r.attacker()
		target := r.receivers[r.rand.Intn(len(r.receivers))]
		t.Assign(target, eve, r.rate())
		return t, nil

	case SingleAttackerMultipleTargets:
		if err := r.need(s, 1, 1); err != nil {
			return nil, err
		}
		eve := r.attacker()
		for _, target := range r.subset() {
			t.Assign(target, eve, r.rate())
		}
		return t, nil

	case MultipleAttackersSingleTargets:
		if err := r.need(s, 2, 2); err != nil {
			return nil, err
		}
		kMax := min(len(r.attackers), len(r.receivers))
		k := 2 + r.rand.Intn(kMax-1)
		atts := r.rand.Perm(len(r.attackers))[:k]
		targets := r.rand.Perm(len(r.receivers))[:k]
		for i := 0; i < k; i++ {
			t.Assign(r.receivers[targets[i]], r.attackers[atts[i]], r.rate())
		}
		return t, nil

	case MultipleAttackersMultipleTargets:
		if err := r.need(s, 2, 1); err != nil {
			return nil, err
		}
		k := 2 + r.rand.Intn(len(r.attackers)-1)
		for _, a := range r.rand.Perm(len(r.attackers))[:k] {
			for _, target := range r.subset() {
				t.Assign(target, r.attackers[a], r.rate())
			}
		}
		return t, nil

	case PartialCoverageRandom:
		if err := r.need(s, 1, 1); err != nil {
			return nil, err
		}
		for _, target := range r.receivers {
			if r.rand.Float64() < CoverageProbability {
				t.Assign(target, r.attacker(), r.rate())
			}
		}
		return t, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownScenario, int(s))
	}
}
