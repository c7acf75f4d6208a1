// Command simulate drives the Streamlet consensus simulator: it builds
// a network of validators, runs it under one of three transport
// regimes, and reports whether the run stayed safe.
package main

import (
	"crypto/sha256"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/tklenze/streamletsim/consistency"
	"github.com/tklenze/streamletsim/internal/diagnostics"
	"github.com/tklenze/streamletsim/network"
	"github.com/tklenze/streamletsim/simconfig"
)

func main() {
	app := &cli.App{
		Name:  "simulate",
		Usage: "run a Streamlet consensus simulation",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "n", Value: 4, Usage: "number of validators"},
			&cli.IntFlag{Name: "epochs", Value: 20, Usage: "number of epochs to run"},
			&cli.StringFlag{Name: "seed", Value: "streamlet", Usage: "seed string, hashed into the 32-byte PRNG seed"},
			&cli.StringSliceFlag{Name: "byzantine", Usage: "adversary flags to give the byzantine minority (fail_stop, always_leader, vote_everything, equivocate, fake_block_signature)"},
			&cli.Float64Flag{Name: "fraction", Value: 0.5, Usage: "per-message delivery probability for the delays regime"},
			&cli.BoolFlag{Name: "dump", Usage: "dump each honest node's block tree after the run"},
		},
		Commands: []*cli.Command{
			runCommand("simple", "deliver messages in order, no loss", func(net *network.Network, epochs int, _ float64) { net.RunSimple(epochs) }),
			runCommand("reorder", "deliver messages within each epoch in random order", func(net *network.Network, epochs int, _ float64) { net.RunReorder(epochs) }),
			runCommand("delays", "randomly delay messages for the first half, then stabilize", func(net *network.Network, epochs int, fraction float64) { net.RunDelaysThenSynchrony(epochs, fraction) }),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runCommand(name, usage string, run func(*network.Network, int, float64)) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(c *cli.Context) error {
			return runSimulation(c, run)
		},
	}
}

func runSimulation(c *cli.Context, run func(*network.Network, int, float64)) error {
	adversary, err := simconfig.NewFlagSet(parseFlags(c.StringSlice("byzantine"))...)
	if err != nil {
		return fmt.Errorf("parse adversary flags: %w", err)
	}

	opts := simconfig.DefaultOptions()
	opts.N = c.Int("n")
	opts.EpochLimit = c.Int("epochs")
	opts.DelayFrac = c.Float64("fraction")
	opts.Adversary = adversary
	opts.Seed = seedFromString(c.String("seed"))

	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	runID := uuid.NewString()
	logger := diagnostics.New(os.Stdout, runID)

	var net *network.Network
	if len(opts.Adversary) == 0 {
		net, err = network.New(opts.N, opts.Seed, logger)
	} else {
		net, err = network.NewByzantine(opts.N, opts.Adversary, opts.Seed, logger)
	}
	if err != nil {
		return fmt.Errorf("build network: %w", err)
	}

	run(net, opts.EpochLimit, opts.DelayFrac)

	report := consistency.Check(net.Nodes, net.HonestIDs())
	renderReport(os.Stdout, report, runID)

	if c.Bool("dump") {
		for _, id := range net.HonestIDs() {
			fmt.Fprintf(os.Stdout, "--- node %d ---\n", id)
			net.Nodes[id].Tree.Dump(os.Stdout)
		}
	}

	if !report.Safe() {
		return cli.Exit("consistency violated", 1)
	}
	return nil
}

func parseFlags(names []string) []simconfig.Flag {
	flags := make([]simconfig.Flag, len(names))
	for i, n := range names {
		flags[i] = simconfig.Flag(n)
	}
	return flags
}

func seedFromString(s string) [32]byte {
	return sha256.Sum256([]byte(s))
}

func renderReport(w *os.File, r consistency.Report, runID string) {
	fmt.Fprintf(w, "run %s: chain-equals-set=%v prefix-ok=%v\n", runID, r.ChainEqualsSet, r.PrefixOK)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"node", "finalized chain"})
	for id, names := range r.Chains {
		table.Append([]string{fmt.Sprintf("%d", id), fmt.Sprintf("%v", names)})
	}
	table.Render()
	for _, v := range r.Violations {
		fmt.Fprintln(w, "VIOLATION:", v)
	}
}
