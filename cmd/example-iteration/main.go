// Command example-iteration runs the canonical geometric-series fixed
// point: starting from {1}, repeatedly doubling and keeping values <= 50,
// using Iterate to find the stable set {1, 2, 4, 8, 16, 32}.
package main

import (
	"fmt"
	"os"

	dataflow "github.com/joeycumines/go-dataflow"
)

func main() {
	g, err := dataflow.NewGraph()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	in, writer := dataflow.NewInput[int](g)

	result := dataflow.Iterate(in, func(s dataflow.Stream[int]) dataflow.Stream[int] {
		doubled := dataflow.MapStream(s, func(x int) int { return x * 2 })
		combined := dataflow.Concat(doubled, s)
		bounded := dataflow.Filter(combined, func(x int) bool { return x <= 50 })
		keyed := dataflow.MapStream(bounded, func(x int) dataflow.KV[int, struct{}] {
			return dataflow.KV[int, struct{}]{Key: x}
		})
		deduped := dataflow.Distinct(keyed)
		values := dataflow.MapStream(deduped, func(kv dataflow.KV[int, struct{}]) int { return kv.Key })
		return dataflow.Consolidate(values)
	})

	var deltas []dataflow.MultiSet[int]
	dataflow.Output(result, func(m dataflow.Message[int]) {
		if !m.IsFrontier && m.Data.Len() > 0 {
			deltas = append(deltas, m.Data)
		}
	})

	v0 := dataflow.NewVersion(0)
	if err := writer.SendData(v0, dataflow.NewMultiSet(dataflow.Pair[int]{Value: 1, Mult: 1})); err != nil {
		panic(err)
	}
	if err := writer.SendFrontier(dataflow.NewAntichain(dataflow.NewVersion(1))); err != nil {
		panic(err)
	}

	target := dataflow.NewAntichain(dataflow.NewVersion(1))
	for steps := 0; dataflow.ProbeFrontierLessThan(result, target) && steps < 10_000; steps++ {
		g.Step()
	}

	cumulative := dataflow.MultiSet[int]{}
	for _, d := range deltas {
		cumulative = cumulative.Concat(d)
	}
	cumulative = cumulative.Consolidate()

	fmt.Println("per-iteration deltas:")
	for _, d := range deltas {
		fmt.Println(" ", d.Consolidate().Entries())
	}
	fmt.Println("cumulative:", cumulative.Entries())
}
