// netsim runs BB84 network scenarios, intercept-rate sweeps, or the fixed
// threat profiles, and writes the results as text, JSON, or protobuf frames.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	flag "github.com/spf13/pflag"

	"github.com/alan-christopher/qkdsim/bb84"
	"github.com/alan-christopher/qkdsim/bb84/analysis"
	"github.com/alan-christopher/qkdsim/bb84/network"
	"github.com/alan-christopher/qkdsim/bb84/report"
	"github.com/alan-christopher/qkdsim/internal/logging"
)

var (
	mode     = flag.String("mode", "network", "What to run: network, sweep or threats.")
	scenario = flag.String("scenario", "random", "The network scenario to run, or random. One of: "+scenarioTags()+".")
	runs     = flag.Int("runs", 1, "The number of network runs.")
	workers  = flag.Int("workers", 0, "The number of random-scenario runs in flight. Zero means one per CPU.")

	qubits     = flag.Int("qubits", network.DefaultQubits, "The number of qubits exchanged per link.")
	receivers  = flag.StringSlice("receivers", network.DefaultReceivers, "The receiving parties.")
	attackers  = flag.StringSlice("attackers", network.DefaultAttackers, "The available eavesdroppers.")
	rateMin    = flag.Float64("rate-min", network.DefaultRateMin, "The lowest intercept rate an attacker draws.")
	rateMax    = flag.Float64("rate-max", network.DefaultRateMax, "The highest intercept rate an attacker draws.")
	noise      = flag.Float64("noise", 0, "The channel's intrinsic bit flip probability.")
	sampleFrac = flag.Float64("sample-fraction", bb84.DefaultSampleFraction, "The proportion of sifted bits sacrificed to estimate the QBER.")
	threshold  = flag.Float64("threshold", bb84.DefaultThreshold, "The highest QBER still considered secure.")
	compress   = flag.Bool("compress", false, "Compress the residual key of secure links.")

	trials   = flag.Int("trials", analysis.DefaultTrials, "The number of links per sweep rate or threat.")
	rateStep = flag.Float64("rate-step", 0.05, "The spacing of sweep intercept rates.")

	seed     = flag.Int64("seed", 1, "The seed of the random source.")
	format   = flag.String("format", "text", "The output format: text, json or proto.")
	out      = flag.String("out", "-", "The output file, or - for stdout.")
	macSeed  = flag.Int64("mac-seed", 0, "If non-zero, authenticate proto frames with a secret stream seeded by this value.")
	summary  = flag.Bool("summary", true, "Append batch and per-attacker statistics to network output.")
	logLevel = flag.String("log-level", "info", "The minimum level to log at: debug, info, warn or error.")
	logJSON  = flag.Bool("log-json", false, "Log as JSON instead of text.")
)

var logger = logging.Logger("netsim")

func main() {
	flag.Parse()
	if err := logging.Setup(os.Stderr, *logLevel, *logJSON); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w := io.Writer(os.Stdout)
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			logger.Error("opening output", "path", *out, "err", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	if err := run(ctx, w); err != nil {
		logger.Error("netsim failed", "mode", *mode, "err", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer) error {
	switch *mode {
	case "network":
		results, err := runNetwork(ctx)
		if err != nil {
			return err
		}
		return writeNetwork(w, results)
	case "sweep":
		res, err := analysis.Sweep(analysis.SweepOpts{
			Qubits:    *qubits,
			Trials:    *trials,
			Rates:     analysis.RateGrid(*rateStep),
			Noise:     *noise,
			Threshold: *threshold,
			Seed:      *seed,
		})
		if err != nil {
			return err
		}
		return writeRecord(w, res, func(tw *tabwriter.Writer) { printSweep(tw, res) })
	case "threats":
		res, err := analysis.ThreatScenarios(*qubits, *trials, rand.New(rand.NewSource(*seed)))
		if err != nil {
			return err
		}
		return writeRecord(w, map[string]any{"threats": res}, func(tw *tabwriter.Writer) { printThreats(tw, res) })
	default:
		return fmt.Errorf("unknown mode %q", *mode)
	}
}

func netOpts() network.Opts {
	return network.Opts{
		Receivers:      *receivers,
		Attackers:      *attackers,
		Qubits:         *qubits,
		RateMin:        *rateMin,
		RateMax:        *rateMax,
		Noise:          *noise,
		SampleFraction: *sampleFrac,
		Threshold:      *threshold,
		Compress:       *compress,
	}
}

func runNetwork(ctx context.Context) ([]network.NetworkResult, error) {
	if *scenario == "random" && *runs > 1 {
		return network.RunRandomScenarios(ctx, netOpts(), network.BatchOpts{
			Count:   *runs,
			Workers: *workers,
			Seed:    *seed,
		})
	}
	var s *network.Scenario
	if *scenario != "random" {
		parsed, err := network.ParseScenario(*scenario)
		if err != nil {
			return nil, err
		}
		s = &parsed
	}
	opts := netOpts()
	opts.Rand = rand.New(rand.NewSource(*seed))
	e, err := network.NewEngine(opts)
	if err != nil {
		return nil, err
	}
	var results []network.NetworkResult
	for i := 0; i < max(1, *runs); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := e.Run(s)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// A batchReport is the JSON and proto form of a network batch.
type batchReport struct {
	Runs      []network.NetworkResult    `json:"runs"`
	Overall   *analysis.Summary          `json:"overall,omitempty"`
	Scenarios []analysis.ScenarioSummary `json:"scenarios,omitempty"`
	Attackers []analysis.AttackerStats   `json:"attackers,omitempty"`
}

func writeNetwork(w io.Writer, results []network.NetworkResult) error {
	br := batchReport{Runs: results}
	if *summary {
		overall := analysis.Overall(results)
		br.Overall = &overall
		br.Scenarios = analysis.ByScenario(results)
		br.Attackers = analysis.Attackers(results)
	}
	switch *format {
	case "json":
		return report.JSON(w, br)
	case "proto":
		pw := report.NewWriter(w, auth())
		for _, r := range results {
			if err := pw.Write(r); err != nil {
				return fmt.Errorf("writing run %v: %w", r.RunID, err)
			}
		}
		if *summary {
			br.Runs = nil
			return pw.Write(br)
		}
		return nil
	case "text":
		tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
		for _, r := range results {
			printRun(tw, r)
		}
		if *summary {
			printSummary(tw, br)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
}

// writeRecord writes a single analysis record in the selected format.
func writeRecord(w io.Writer, v any, text func(*tabwriter.Writer)) error {
	switch *format {
	case "json":
		return report.JSON(w, v)
	case "proto":
		return report.NewWriter(w, auth()).Write(v)
	case "text":
		tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
		text(tw)
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
}

func auth() *report.Auth {
	if *macSeed == 0 {
		return nil
	}
	return &report.Auth{Secret: rand.New(rand.NewSource(*macSeed))}
}

func printRun(tw *tabwriter.Writer, r network.NetworkResult) {
	fmt.Fprintf(tw, "run %s\t%s\t%d/%d secure\t%.1f%%\n",
		r.RunID, r.Scenario, r.SecureCount, r.TotalLinks, r.SecurityPercentage)
	for _, l := range r.Links {
		attacker := l.Attacker
		if attacker == "" {
			attacker = "-"
		}
		status := "secure"
		if !l.Secure() {
			status = "COMPROMISED"
		}
		if l.Error != "" {
			status = "FAILED: " + l.Error
		}
		fmt.Fprintf(tw, "  %s\t%s\trate %.2f\tqber %.3f\tkey %d\t%s\n",
			l.Receiver, attacker, l.InterceptRate, l.QBER(), l.KeyLength, status)
	}
}

func printSummary(tw *tabwriter.Writer, br batchReport) {
	o := br.Overall
	fmt.Fprintf(tw, "\noverall\t%d runs\t%d/%d secure\t%.2f%%\n",
		o.Runs, o.SecureLinks, o.TotalLinks, o.SecurityPercentage)
	for _, s := range br.Scenarios {
		fmt.Fprintf(tw, "  %s\t%d runs\t%d/%d secure\t%.2f%%\n",
			s.Scenario, s.Runs, s.SecureLinks, s.TotalLinks, s.SecurityPercentage)
	}
	for _, a := range br.Attackers {
		fmt.Fprintf(tw, "  %s\t%d attacked\t%d compromised\tsuccess %.1f%%\tmean qber %.3f\n",
			a.ID, a.LinksAttacked, a.LinksCompromised, 100*a.SuccessRate, a.MeanQBER)
	}
}

func printSweep(tw *tabwriter.Writer, res analysis.SweepResult) {
	fmt.Fprintf(tw, "rate\tmean qber\tstd\tdetected\n")
	for _, pt := range res.Points {
		fmt.Fprintf(tw, "%.2f\t%.4f\t%.4f\t%.0f%%\n", pt.Rate, pt.MeanQBER, pt.StdQBER, 100*pt.DetectionRate)
	}
	fmt.Fprintf(tw, "\ncorrelation\t%.4f\n", res.Correlation)
	fmt.Fprintf(tw, "fit\tqber = %.4f + %.4f*rate\tr^2 %.4f\n", res.Intercept, res.Slope, res.RSquared)
	if res.Crossing >= 0 {
		fmt.Fprintf(tw, "detection from\trate %.2f\n", res.Crossing)
	}
}

func printThreats(tw *tabwriter.Writer, res []analysis.ThreatResult) {
	fmt.Fprintf(tw, "threat\tmean rate\tmean qber\tstd\tstatus\n")
	for _, tr := range res {
		fmt.Fprintf(tw, "%s\t%.2f\t%.4f\t%.4f\t%s\n", tr.Threat.Name, tr.MeanRate, tr.MeanQBER, tr.StdQBER, tr.Status)
	}
}

func scenarioTags() string {
	var tags []string
	for _, s := range network.Scenarios() {
		tags = append(tags, s.String())
	}
	return strings.Join(tags, ", ")
}
