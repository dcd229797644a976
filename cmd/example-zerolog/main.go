// Command example-zerolog wires a Graph's structured logger to zerolog via
// izerolog, and runs a small map/filter/consolidate pipeline with Debug
// taps so the logging output is visible.
package main

import (
	"fmt"
	"os"

	dataflow "github.com/joeycumines/go-dataflow"
	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

func main() {
	logger := logiface.New(izerolog.WithZerolog(
		zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger(),
	)).Logger()

	g, err := dataflow.NewGraph(dataflow.WithLogger(logger), dataflow.WithMetrics(true))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	in, writer := dataflow.NewInput[int](g)
	doubled := dataflow.MapStream(in, func(x int) int { return x * 2 })
	positive := dataflow.Filter(doubled, func(x int) bool { return x > 0 })
	tapped := dataflow.Debug(positive, "doubled-positive")
	out := dataflow.Consolidate(tapped)

	var results []dataflow.Message[int]
	dataflow.Output(out, func(m dataflow.Message[int]) {
		results = append(results, m)
	})

	v0 := dataflow.NewVersion(0)
	if err := writer.SendData(v0, dataflow.NewMultiSet(
		dataflow.Pair[int]{Value: 1, Mult: 1},
		dataflow.Pair[int]{Value: -1, Mult: 1},
		dataflow.Pair[int]{Value: 2, Mult: 1},
	)); err != nil {
		panic(err)
	}
	if err := writer.SendFrontier(dataflow.NewAntichain(dataflow.NewVersion(1))); err != nil {
		panic(err)
	}

	for dataflow.ProbeFrontierLessThan(out, dataflow.NewAntichain(dataflow.NewVersion(1))) {
		g.Step()
	}

	for _, m := range results {
		if m.IsFrontier {
			fmt.Println("frontier:", m.Frontier.String())
			continue
		}
		fmt.Println("data at", m.Version.String(), ":", m.Data.Entries())
	}

	metrics := g.Metrics()
	fmt.Printf("steps=%d p50=%s\n", metrics.Steps, metrics.StepLatency.P50)
}
