// SPDX-License-Identifier: MIT

// Command zopflidump runs the backward-reference optimizer over a file and
// prints the chosen command stream, for manual inspection and regression
// comparison against a reference encoder.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/zopfligo/backref"
)

func main() {
	app := &cli.App{
		Name:  "zopflidump",
		Usage: "dump the Zopfli-style backward-reference command stream for a file",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "quality", Value: 11, Usage: "optimizer quality tier (10 or 11)"},
			&cli.BoolFlag{Name: "verbose", Usage: "print every command, not just the summary"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "zopflidump:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: zopflidump [--quality 10|11] [--verbose] <file>", 2)
	}

	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}
	if len(data) == 0 {
		fmt.Println("0 commands, 0 bits modeled")
		return nil
	}

	size := uint32(1)
	for int(size) < len(data) {
		size <<= 1
	}
	ring := backref.NewRingBuffer(size)
	ring.Write(0, data)

	opts := backref.DefaultOptions()
	opts.Quality = c.Int("quality")

	matcher := backref.NewH10Matcher()
	defer matcher.Release()
	var distCache [4]uint32

	commands, stats, err := backref.CreateBackwardReferences(ring, len(data), 0, matcher, &distCache, opts)
	if err != nil {
		return err
	}

	var totalCost float32
	if len(stats.PassCosts) > 0 {
		totalCost = stats.PassCosts[len(stats.PassCosts)-1]
	}
	fmt.Printf("%d commands, %d literals, %.1f bits modeled\n", stats.NumCommands, stats.NumLiterals, totalCost)

	if c.Bool("verbose") {
		for i, cmd := range commands {
			fmt.Printf("%4d: insert=%d copy=%d distance=%d short_code=%d\n", i, cmd.InsertLength, cmd.CopyLength, cmd.Distance, cmd.ShortCode)
		}
	}

	return nil
}
