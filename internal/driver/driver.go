// Package driver implements the top-level per-file run loop (spec.md
// §4.6): compile one source file, run it to quiescence on a fresh Machine,
// and move on, independently of every other file on the command line.
package driver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sync/semaphore"

	"brains/internal/lang"
	"brains/internal/machine"
)

// Config collects everything a run of one or more source files needs beyond
// the list of paths itself.
type Config struct {
	Policy       machine.Policy
	Quantum      machine.Quantum
	Infanticide  bool
	Debug        bool
	MaxThreads   int
	MaxProcesses int
	Seed         int64

	// Concurrency bounds how many files' compile+run passes may overlap.
	// 1 (the default) is fully sequential, matching spec.md §4.6's plain
	// "for each source file" loop; raising it only affects wall-clock
	// throughput across unrelated files; it never changes one file's own
	// scheduling, since each file gets its own Machine and nothing is
	// shared between them.
	Concurrency int

	Stdout io.Writer
	Stderr io.Writer
}

// Run compiles and executes every path in order of appearance on stderr/
// stdout, bounded by Config.Concurrency. A per-file compile error is
// reported to stderr and that file is skipped; it never aborts the rest of
// the batch, matching spec.md §4.6/§7.
func Run(ctx context.Context, paths []string, cfg Config) {
	n := cfg.Concurrency
	if n <= 0 {
		n = 1
	}
	sem := semaphore.NewWeighted(int64(n))

	var wg sync.WaitGroup
	var mu sync.Mutex // serializes stderr/stdout writes across overlapping files

	for _, path := range paths {
		path := path
		if err := sem.Acquire(ctx, 1); err != nil {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			runFile(path, cfg, &mu)
		}()
	}
	wg.Wait()
}

// runFile implements one pass of spec.md §4.6's loop body: compile, run,
// reset for the next file. Program input defaults to the file's own
// remaining bytes after a '!'; when no '!' is ever seen, os.Stdin is used
// instead, per spec.md §6.
func runFile(path string, cfg Config, mu *sync.Mutex) {
	f, err := os.Open(path)
	if err != nil {
		mu.Lock()
		fmt.Fprintf(cfg.Stderr, "%s: %v\n", path, err)
		mu.Unlock()
		return
	}
	defer f.Close()

	filter := lang.NewFilter(bufio.NewReader(f))
	prog, err := lang.Compile(filter)
	if err != nil {
		mu.Lock()
		fmt.Fprintf(cfg.Stderr, "%s: %v\n", path, err)
		mu.Unlock()
		return
	}

	input := filter.InputReader()
	if !filter.BangSeen() {
		input = os.Stdin
	}

	opts := machine.Options{
		Policy:       cfg.Policy,
		Quantum:      cfg.Quantum,
		Infanticide:  cfg.Infanticide,
		Debug:        cfg.Debug,
		MaxThreads:   cfg.MaxThreads,
		MaxProcesses: cfg.MaxProcesses,
		Seed:         cfg.Seed,
	}

	var stdout io.Writer = cfg.Stdout
	if cfg.Concurrency > 1 {
		// Multiple files may be running at once; serialize their byte
		// output so one file's '.' output isn't interleaved mid-write with
		// another's.
		stdout = &lockedWriter{mu: mu, w: cfg.Stdout}
	}

	m := machine.New(prog, opts, stdout, cfg.Stderr, input)
	m.Run()
}

// lockedWriter serializes Write calls from concurrently running files onto
// a single shared stdout.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
