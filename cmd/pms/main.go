// Command pms sorts the bytes of a file with a pipelined merge-sort
// network and prints the result, one value per line, as soon as each
// value is decided.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/convox/logger"
	"github.com/exascience/pms/numbers"
	"github.com/exascience/pms/pipeline"
	"github.com/pkg/errors"
)

type options struct {
	file     string
	size     int
	echo     bool
	generate int
	seed     int64
	verbose  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", numbers.DefaultFile, "Input file, one unsigned 8-bit value per byte")
	flag.IntVar(&opts.size, "size", 0, "Pipeline depth including source and sink (0: smallest depth that sorts the input)")
	flag.BoolVar(&opts.echo, "echo", true, "Print the input on a single line before sorting")
	flag.IntVar(&opts.generate, "generate", -1, "Write this many random values to -file and exit")
	flag.Int64Var(&opts.seed, "seed", 1, "Random seed for -generate")
	flag.BoolVar(&opts.verbose, "v", false, "Log stage progress to stderr")
	flag.Parse()

	if err := run(opts, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "pms: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, stdout, stderr io.Writer) error {
	logOut := io.Discard
	if opts.verbose {
		logOut = stderr
	}
	log := logger.NewWriter("ns=pms", logOut)

	if opts.generate >= 0 {
		if err := numbers.WriteFile(opts.file, opts.generate, opts.seed); err != nil {
			return log.Error(err)
		}
		log.At("generate").Successf("file=%q count=%d", opts.file, opts.generate)
		return nil
	}
	if opts.size < 0 {
		return errors.Errorf("invalid pipeline size: %d", opts.size)
	}

	input := numbers.Load(opts.file, log)
	if opts.echo {
		if err := numbers.Echo(stdout, input); err != nil {
			return err
		}
	}

	lines := numbers.NewLineWriter(stdout)
	var p pipeline.Pipeline[uint8]
	p.Logger(log)
	p.Source(input)
	p.Sink(lines)
	if opts.size > 0 {
		p.Depth(opts.size)
	}
	log = log.At("sort").Start()
	if err := p.Run(); err != nil {
		return log.Error(err)
	}
	log.Successf("depth=%d count=%d", p.Depth(0), lines.Count())
	return nil
}
