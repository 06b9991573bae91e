/*
Copyright (C) 2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// sparrow-inspect is a tiny REPL over a running Engine's live stats —
// WeightsTable contents, buffer ESS, booster iteration/gamma — grounded
// in the teacher's own scm.Repl (scm/prompt.go).
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/launix-de/sparrow/engine"
	"github.com/launix-de/sparrow/model"
)

const prompt = "\033[32msparrow>\033[0m "

func main() {
	cfg := engine.Config{
		Size:               1024,
		BatchSize:          64,
		SweepSize:          10000,
		NumExamplesPerSlot: 64,
		NumSlots:           1024,
		SlotBytes:          16 * 1024,
		QueueCapacity:      256,
		TotalIterations:    1 << 20, // effectively unbounded for an interactive session
		Delta:              0.05,
		InitialGamma:       0.1,
		Candidates: []model.Candidate{
			{SplitIndex: 0, SplitThreshold: 0, LeftPrediction: -1, RightPrediction: 1},
		},
		SlotFilePath: "sparrow-inspect-slots.dat",
	}

	eng, err := engine.New(cfg)
	if err != nil {
		panic(err)
	}
	eng.Run()

	repl(eng)
}

func repl(eng *engine.Engine) {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     ".sparrow-inspect-history.tmp",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		panic(err)
	}
	defer l.Close()
	l.CaptureExitSignal()

	fmt.Println("commands: weights, ess, iteration, quit")
	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			return
		} else if err != nil {
			panic(err)
		}

		switch strings.TrimSpace(line) {
		case "":
			continue
		case "weights":
			for _, e := range eng.Weights.Snapshot() {
				fmt.Printf("  stratum %d: weight %.6g\n", e.Index, e.Weight())
			}
		case "ess":
			fmt.Printf("  ess = %.4f\n", eng.Loader.GetESS(model.AdaBoostWeight))
		case "iteration":
			fmt.Printf("  iteration=%d gamma=%.6g\n", eng.Driver.Iteration(), eng.Driver.Gamma())
		case "quit", "exit":
			eng.Stop()
			return
		default:
			fmt.Println("  unknown command")
		}
	}
}
