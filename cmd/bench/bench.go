// bench.go runs a batch of BB84 link sessions for each entry in the cartesian
// product of a collection of different tuning parameters, e.g. intercept rate
// and qubits exchanged, and outputs a CSV of relevant statistics for each
// different combination, e.g. mean QBER and secret key length.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"text/template"

	flag "github.com/spf13/pflag"
	"gonum.org/v1/gonum/stat"

	"github.com/alan-christopher/qkdsim/bb84"
	"github.com/alan-christopher/qkdsim/bb84/photon"
	"github.com/alan-christopher/qkdsim/internal/logging"
)

var (
	qubits     = flag.IntSlice("qubits", []int{1000}, "The number of qubits exchanged per session.")
	rate       = flag.Float64Slice("rate", []float64{0, 0.5, 1}, "The eavesdropper's intercept rates. A rate of 0 runs without an eavesdropper.")
	noise      = flag.Float64Slice("noise", []float64{0}, "The channel's intrinsic bit flip probabilities.")
	sampleFrac = flag.Float64Slice("sampleFraction", []float64{bb84.DefaultSampleFraction}, "The proportions of sifted bits sacrificed to estimate the QBER.")
	threshold  = flag.Float64Slice("threshold", []float64{bb84.DefaultThreshold}, "The highest QBERs still considered secure.")
	trials     = flag.Int("trials", 20, "The number of sessions to run per parameterization.")
	seed       = flag.Int64("seed", 42, "The seed of every parameterization's random source.")
	logLevel   = flag.String("log-level", "warn", "The minimum level to log at: debug, info, warn or error.")
)

var logger = logging.Logger("bench")

var (
	inputs = []string{"qubits", "rate", "noise", "sampleFraction", "threshold"}
	// TODO: consider using reflection to pull this out of the Experiment data
	//   type.
	columns = []string{"Qubits", "Rate", "Noise", "SampleFraction", "Threshold",
		"Trials", "MeanSifted", "MeanQBER", "StdQBER", "DetectionRate",
		"MeanSecretBits", "Failures"}
)

// An Experiment packages together the result of benchmarking a single
// parameterization for easy formatting.
type Experiment struct {
	// Fields corresponding to experiment parameters
	Qubits         int
	Rate           float64
	Noise          float64
	SampleFraction float64
	Threshold      float64

	// Fields corresponding to experiment results
	Trials         int
	MeanSifted     float64
	MeanQBER       float64
	StdQBER        float64
	DetectionRate  float64
	MeanSecretBits float64
	Failures       int
}

func main() {
	flag.Parse()
	if err := logging.Setup(os.Stderr, *logLevel, false); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	fmt.Println(header())
	tmpl := template.Must(template.New("line").Parse(lineTmpl()))
	var args [][]interface{}
	for _, inp := range inputs {
		args = append(args, lookupInput(inp))
	}
	applyCartesian(func(args []interface{}) {
		exp := &Experiment{
			Qubits:         args[inpIndex("qubits")].(int),
			Rate:           args[inpIndex("rate")].(float64),
			Noise:          args[inpIndex("noise")].(float64),
			SampleFraction: args[inpIndex("sampleFraction")].(float64),
			Threshold:      args[inpIndex("threshold")].(float64),
		}
		if err := bench(exp); err != nil {
			logger.Error("benchmark failed", "experiment", fmt.Sprintf("%+v", *exp), "err", err)
		}
		if err := tmpl.Execute(os.Stdout, exp); err != nil {
			logger.Error("BUG: could not fill in line template", "err", err)
			os.Exit(1)
		}
	}, args)
}

func inpIndex(v string) int {
	for i, inp := range inputs {
		if inp == v {
			return i
		}
	}
	return -1
}

func bench(exp *Experiment) error {
	r := rand.New(rand.NewSource(*seed))
	opts := bb84.LinkOpts{
		Qubits:         exp.Qubits,
		Rand:           r,
		Noise:          exp.Noise,
		SampleFraction: exp.SampleFraction,
		Threshold:      exp.Threshold,
		Compress:       true,
	}
	if exp.Rate > 0 {
		opts.Attacker = &photon.Attacker{ID: "Eve", InterceptRate: exp.Rate}
	}
	var qbers, sifted, secret []float64
	detected := 0
	var lastErr error
	for i := 0; i < *trials; i++ {
		res, err := bb84.RunLink(opts)
		if err != nil {
			exp.Failures++
			lastErr = err
			continue
		}
		qbers = append(qbers, res.QBER())
		sifted = append(sifted, float64(res.KeyLength))
		secret = append(secret, float64(res.SecretKey.Size()))
		if !res.Secure() {
			detected++
		}
	}
	exp.Trials = len(qbers)
	if exp.Trials == 0 {
		return lastErr
	}
	exp.MeanQBER, exp.StdQBER = stat.PopMeanStdDev(qbers, nil)
	exp.MeanSifted = stat.Mean(sifted, nil)
	exp.MeanSecretBits = stat.Mean(secret, nil)
	exp.DetectionRate = float64(detected) / float64(exp.Trials)
	return lastErr
}

func header() string {
	return strings.Join(columns, ", ")
}

func lineTmpl() string {
	var els []string
	for _, c := range columns {
		els = append(els, "{{."+c+"}}")
	}
	return strings.Join(els, ", ") + "\n"
}

func lookupInput(name string) []interface{} {
	var r []interface{}
	if v, err := flag.CommandLine.GetIntSlice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else if v, err := flag.CommandLine.GetFloat64Slice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else {
		logger.Error("unknown type for input", "input", name)
		os.Exit(1)
	}
	return r
}

func applyCartesian(f func([]interface{}), args [][]interface{}) {
	for i := range args {
		if len(args[i]) == 1 {
			continue
		}
		l := make([][]interface{}, len(args))
		r := make([][]interface{}, len(args))
		copy(l, args)
		copy(r, args)
		l[i] = args[i][:1]
		r[i] = args[i][1:]
		applyCartesian(f, l)
		applyCartesian(f, r)
		return
	}
	x := make([]interface{}, 0, len(args))
	for _, a := range args {
		x = append(x, a[0])
	}
	f(x)
}
