package analysis

import (
	"sort"
	"strings"

	"github.com/alan-christopher/qkdsim/bb84/network"
)

// AttackerStats summarizes one attacker's links across network runs. A link
// shared by coordinated attackers counts towards each of them.
type AttackerStats struct {
	ID               string `json:"id"`
	LinksAttacked    int    `json:"links_attacked"`
	LinksCompromised int    `json:"links_compromised"`
	// SuccessRate is the fraction of attacked links that were compromised.
	SuccessRate float64 `json:"success_rate"`
	// MeanQBER is the mean QBER of the attacked links.
	MeanQBER float64 `json:"mean_qber"`
}

// Attackers returns per-attacker statistics over results, sorted by id.
func Attackers(results []network.NetworkResult) []AttackerStats {
	byID := make(map[string]*AttackerStats)
	qberSum := make(map[string]float64)
	for _, nr := range results {
		for _, l := range nr.Links {
			for _, id := range splitLabel(l.Attacker) {
				s, ok := byID[id]
				if !ok {
					s = &AttackerStats{ID: id}
					byID[id] = s
				}
				s.LinksAttacked++
				if !l.Secure() {
					s.LinksCompromised++
				}
				qberSum[id] += l.QBER()
			}
		}
	}
	r := make([]AttackerStats, 0, len(byID))
	for id, s := range byID {
		s.SuccessRate = float64(s.LinksCompromised) / float64(s.LinksAttacked)
		s.MeanQBER = qberSum[id] / float64(s.LinksAttacked)
		r = append(r, *s)
	}
	sort.Slice(r, func(i, j int) bool { return r[i].ID < r[j].ID })
	return r
}

// splitLabel splits a coordinated attacker label into its ids.
func splitLabel(label string) []string {
	var r []string
	for _, id := range strings.Split(label, "&") {
		if id = strings.TrimSpace(id); id != "" {
			r = append(r, id)
		}
	}
	return r
}

// A Summary aggregates link counts across network runs.
type Summary struct {
	Runs               int     `json:"runs"`
	TotalLinks         int     `json:"total_links"`
	SecureLinks        int     `json:"secure_links"`
	CompromisedLinks   int     `json:"compromised_links"`
	SecurityPercentage float64 `json:"security_percentage"`
}

func (s *Summary) add(nr network.NetworkResult) {
	s.Runs++
	s.TotalLinks += nr.TotalLinks
	s.SecureLinks += nr.SecureCount
	s.CompromisedLinks += nr.CompromisedCount
}

func (s *Summary) finish() {
	if s.TotalLinks > 0 {
		s.SecurityPercentage = 100 * float64(s.SecureLinks) / float64(s.TotalLinks)
	}
}

// Overall sums link counts over results. SecurityPercentage is 0 when there
// are no links.
func Overall(results []network.NetworkResult) Summary {
	var s Summary
	for _, nr := range results {
		s.add(nr)
	}
	s.finish()
	return s
}

// A ScenarioSummary aggregates the runs of a single scenario.
type ScenarioSummary struct {
	Scenario network.Scenario `json:"scenario"`
	Summary
}

// ByScenario aggregates results per scenario, in scenario declaration order.
// Scenarios without runs are omitted.
func ByScenario(results []network.NetworkResult) []ScenarioSummary {
	sums := make(map[network.Scenario]*Summary)
	for _, nr := range results {
		s, ok := sums[nr.Scenario]
		if !ok {
			s = &Summary{}
			sums[nr.Scenario] = s
		}
		s.add(nr)
	}
	var r []ScenarioSummary
	for _, sc := range network.Scenarios() {
		if s, ok := sums[sc]; ok {
			s.finish()
			r = append(r, ScenarioSummary{Scenario: sc, Summary: *s})
		}
	}
	return r
}
