// Package network runs BB84 sessions between one sender and many receivers
// under configurable attack topologies, and aggregates how many links remain
// secure.
package network

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/alan-christopher/qkdsim/bb84"
	"github.com/alan-christopher/qkdsim/bb84/photon"
	qerrors "github.com/alan-christopher/qkdsim/internal/errors"
	"github.com/alan-christopher/qkdsim/internal/logging"
)

var logger = logging.Logger("network")

var (
	DefaultReceivers = []string{"Bob", "Charlie", "Dave", "Erin"}
	DefaultAttackers = []string{"Eve", "Mallory", "Oscar"}
	DefaultQubits    = 1000
	DefaultRateMin   = 0.5
	DefaultRateMax   = 1.0
)

// Opts packages together the arguments of a network Engine. Zero-valued
// fields take the package defaults; RateMin and RateMax take theirs only when
// both are zero.
type Opts struct {
	// Receivers names every receiving party. Names must be unique.
	Receivers []string
	// Attackers names the available eavesdroppers. Names must be unique.
	Attackers []string

	// Qubits is the number of qubits exchanged on each link.
	Qubits int

	// RateMin and RateMax bound the uniformly drawn intercept rates.
	RateMin float64
	RateMax float64

	// Noise, SampleFraction, Threshold and Compress are passed to every
	// link, see bb84.LinkOpts.
	Noise          float64
	SampleFraction float64
	Threshold      float64
	Compress       bool

	// Rand drives every random choice of the engine and its links. Must be
	// non-nil.
	Rand *rand.Rand
}

func (o Opts) withDefaults() Opts {
	if o.Receivers == nil {
		o.Receivers = DefaultReceivers
	}
	if o.Attackers == nil {
		o.Attackers = DefaultAttackers
	}
	if o.Qubits == 0 {
		o.Qubits = DefaultQubits
	}
	if o.RateMin == 0 && o.RateMax == 0 {
		o.RateMin, o.RateMax = DefaultRateMin, DefaultRateMax
	}
	return o
}

func (o Opts) validate() error {
	if len(o.Receivers) == 0 {
		return fmt.Errorf("%w: at least one receiver is required", bb84.ErrInvalidInput)
	}
	if err := unique("receiver", o.Receivers); err != nil {
		return err
	}
	if err := unique("attacker", o.Attackers); err != nil {
		return err
	}
	if o.Qubits <= 0 {
		return fmt.Errorf("%w: qubit count must be positive, got %d", bb84.ErrInvalidInput, o.Qubits)
	}
	if !(0 <= o.RateMin && o.RateMin <= o.RateMax && o.RateMax <= 1) {
		return fmt.Errorf("%w: rate range [%v, %v] not within [0, 1]", bb84.ErrInvalidInput, o.RateMin, o.RateMax)
	}
	return nil
}

func unique(role string, names []string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" {
			return fmt.Errorf("%w: empty %s name", bb84.ErrInvalidInput, role)
		}
		if seen[n] {
			return fmt.Errorf("%w: duplicate %s %q", bb84.ErrInvalidInput, role, n)
		}
		seen[n] = true
	}
	return nil
}

// A NetworkResult aggregates the links of one engine run.
type NetworkResult struct {
	RunID    uuid.UUID `json:"run_id"`
	Scenario Scenario  `json:"scenario"`

	// Links holds one result per receiver, in roster order.
	Links []bb84.LinkResult `json:"links"`

	TotalLinks       int `json:"total_links"`
	SecureCount      int `json:"secure_links"`
	CompromisedCount int `json:"compromised_links"`
	// SecurityPercentage is the share of secure links in [0, 100], 0 when
	// there are no links.
	SecurityPercentage float64 `json:"security_percentage"`

	// Attackers lists the distinct active attacker ids, sorted.
	Attackers []string `json:"attackers"`
}

// An Engine runs network scenarios. It is not safe for concurrent use.
type Engine struct {
	opts     Opts
	resolver resolver
	link     func(bb84.LinkOpts) (bb84.LinkResult, error)
}

// NewEngine validates opts and returns an Engine over them.
func NewEngine(opts Opts) (*Engine, error) {
	opts = opts.withDefaults()
	if opts.Rand == nil {
		return nil, errors.New("must provide Rand")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Engine{
		opts: opts,
		resolver: resolver{
			rand:      opts.Rand,
			receivers: opts.Receivers,
			attackers: opts.Attackers,
			rateMin:   opts.RateMin,
			rateMax:   opts.RateMax,
		},
		link: bb84.RunLink,
	}, nil
}

// Run executes scenario s, or a uniformly drawn scenario if s is nil. Only
// topology errors fail the run; a failed link is recorded as compromised and
// the remaining links still run.
func (e *Engine) Run(s *Scenario) (NetworkResult, error) {
	var scenario Scenario
	if s == nil {
		scenario = RandomScenario(e.opts.Rand)
	} else {
		scenario = *s
	}
	id, err := uuid.NewRandomFromReader(e.opts.Rand)
	if err != nil {
		return NetworkResult{}, fmt.Errorf("drawing run id: %w", err)
	}
	topo, err := e.resolver.resolve(scenario)
	if err != nil {
		return NetworkResult{}, fmt.Errorf("resolving %v: %w", scenario, err)
	}

	res := NetworkResult{
		RunID:     id,
		Scenario:  scenario,
		Links:     make([]bb84.LinkResult, 0, len(e.opts.Receivers)),
		Attackers: topo.ActiveAttackers(),
	}
	for _, receiver := range e.opts.Receivers {
		lr := e.runLink(receiver, topo.Assignments[receiver])
		res.Links = append(res.Links, lr)
		if lr.Secure() {
			res.SecureCount++
		} else {
			res.CompromisedCount++
		}
	}
	res.TotalLinks = len(res.Links)
	if res.TotalLinks > 0 {
		res.SecurityPercentage = 100 * float64(res.SecureCount) / float64(res.TotalLinks)
	}
	logger.Info("network run complete",
		"run_id", res.RunID,
		"scenario", scenario,
		"secure", res.SecureCount,
		"compromised", res.CompromisedCount)
	return res, nil
}

// RunScenario is shorthand for Run(&s).
func (e *Engine) RunScenario(s Scenario) (NetworkResult, error) {
	return e.Run(&s)
}

func (e *Engine) runLink(receiver string, a *Assignment) bb84.LinkResult {
	opts := bb84.LinkOpts{
		Receiver:       receiver,
		Qubits:         e.opts.Qubits,
		Rand:           e.opts.Rand,
		Noise:          e.opts.Noise,
		SampleFraction: e.opts.SampleFraction,
		Threshold:      e.opts.Threshold,
		Compress:       e.opts.Compress,
	}
	if a != nil {
		opts.Attacker = &photon.Attacker{ID: a.Label(), InterceptRate: a.Rate}
	}
	lr, err := e.link(opts)
	if err != nil {
		err = qerrors.NewLinkError(receiver, err)
		logger.Warn("link failed", "receiver", receiver, "err", err)
		return failedLink(opts, err)
	}
	logger.Debug("link complete",
		"receiver", receiver,
		"attacker", lr.Attacker,
		"qber", lr.QBER(),
		"secure", lr.Secure())
	return lr
}

func failedLink(opts bb84.LinkOpts, err error) bb84.LinkResult {
	lr := bb84.LinkResult{
		Receiver: opts.Receiver,
		Assessment: bb84.Assessment{
			QBER:      1,
			Threshold: opts.Threshold,
		},
		Stats: bb84.Stats{Qubits: opts.Qubits},
		Error: err.Error(),
	}
	if lr.Assessment.Threshold == 0 {
		lr.Assessment.Threshold = bb84.DefaultThreshold
	}
	if opts.Attacker != nil {
		lr.Attacker = opts.Attacker.ID
		lr.InterceptRate = opts.Attacker.InterceptRate
	}
	return lr
}
