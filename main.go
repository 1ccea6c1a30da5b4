// Command brains compiles and runs one or more tape-machine source files,
// each on its own fresh process/thread roster, in the order given on the
// command line.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"brains/internal/driver"
	"brains/internal/machine"
)

// defaultQuanta is the quantum used when neither -q nor -Q is given.
const defaultQuanta = 10

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("brains", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	processQuantum := flags.IntP("process-fair", "q", defaultQuanta, "process-fair scheduling with the given quantum")
	threadQuantum := flags.IntP("thread-fair", "Q", defaultQuanta, "thread-fair scheduling with the given quantum")
	infanticide := flags.Bool("infanticide", false, "kill a dying process's forked descendants along with it instead of letting them run on")
	debug := flags.Bool("debug", false, "trace every dispatched instruction to stderr")
	maxThreads := flags.Int("max-threads", 0, "cap on live threads across one file's run (0 = unbounded)")
	maxProcesses := flags.Int("max-processes", 0, "cap on live processes across one file's run (0 = unbounded)")
	jobs := flags.Int("jobs", 1, "number of source files to compile and run concurrently")

	if err := flags.Parse(args); err != nil {
		return 1
	}

	if flags.Changed("process-fair") && flags.Changed("thread-fair") {
		fmt.Fprintln(stderr, "brains: -q and -Q are mutually exclusive")
		return 1
	}

	policy := machine.ProcessFair
	quantum := machine.Quantum(defaultQuanta)
	switch {
	case flags.Changed("thread-fair"):
		policy = machine.ThreadFair
		quantum = machine.Quantum(*threadQuantum)
	case flags.Changed("process-fair"):
		quantum = machine.Quantum(*processQuantum)
	}

	paths := flags.Args()
	if len(paths) == 0 {
		fmt.Fprintln(stderr, "usage: brains [-q N | -Q N] file ...")
		return 1
	}

	cfg := driver.Config{
		Policy:       policy,
		Quantum:      quantum,
		Infanticide:  *infanticide,
		Debug:        *debug,
		MaxThreads:   *maxThreads,
		MaxProcesses: *maxProcesses,
		Seed:         time.Now().UnixNano(),
		Concurrency:  *jobs,
		Stdout:       stdout,
		Stderr:       stderr,
	}

	driver.Run(context.Background(), paths, cfg)
	return 0
}
