// Command trigram builds a trigram model from text files or standard input
// and prints either a generated text or the model's transition table.
//
//	trigram [flags] [file ...]
//
// A file named "-" is standard input. With no files and no -example, standard
// input is read.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/CTAG07/trigram/pkg/corpus"
	"github.com/CTAG07/trigram/pkg/trigram"
	"github.com/dustin/go-humanize"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const defaultTransitionLimit = 200

// exampleList collects repeated -example flags.
type exampleList []int

func (l *exampleList) String() string {
	parts := make([]string, len(*l))
	for i, n := range *l {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func (l *exampleList) Set(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("example index must be an integer, got %q", value)
	}
	*l = append(*l, n)
	return nil
}

type options struct {
	seed        string
	maxTokens   string
	transitions bool
	limit       int
	examples    exampleList
	verbose     bool
	version     bool
	files       []string
}

// namedSource is one input text and where it came from.
type namedSource struct {
	name string
	text string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("trigram", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.seed, "seed", "", "integer seed for a reproducible start pair (empty for random)")
	fs.StringVar(&opts.maxTokens, "max-tokens", "100", "maximum number of tokens to generate")
	fs.BoolVar(&opts.transitions, "transitions", false, "print the transition table instead of generating")
	fs.IntVar(&opts.limit, "limit", defaultTransitionLimit, "maximum transition pairs to print (0 for all)")
	fs.Var(&opts.examples, "example", "add a bundled example source by index (repeatable)")
	fs.BoolVar(&opts.verbose, "v", false, "enable debug logging on stderr")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.limit < 0 {
		return nil, fmt.Errorf("-limit must not be negative, got %d", opts.limit)
	}
	opts.files = fs.Args()
	return opts, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		_, _ = fmt.Fprintf(stderr, "trigram: %v\n", err)
		return exitUsage
	}
	if opts.version {
		_, _ = fmt.Fprintf(stdout, "trigram %s (commit %s, built %s)\n", Version, Commit, BuildDate)
		return exitOK
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	seed, seeded, err := trigram.ParseSeed(opts.seed)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "trigram: %v\n", err)
		return exitUsage
	}
	maxTokens, err := trigram.ParseMaxTokens(opts.maxTokens)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "trigram: %v\n", err)
		return exitUsage
	}

	sources, err := collectSources(opts, stdin)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "trigram: %v\n", err)
		if errors.Is(err, trigram.ErrInvalidArgument) {
			return exitUsage
		}
		return exitError
	}

	genOpts := []trigram.Option{trigram.WithLogger(logger)}
	if seeded {
		genOpts = append(genOpts, trigram.WithSeed(seed))
	}
	gen := trigram.NewGenerator(genOpts...)

	added := 0
	for _, src := range sources {
		if strings.TrimSpace(src.text) == "" {
			logger.Warn("Skipping empty source", "source", src.name)
			continue
		}
		if err = gen.AddSource(src.text); err != nil {
			_, _ = fmt.Fprintf(stderr, "trigram: %s: %v\n", src.name, err)
			return exitError
		}
		logger.Debug("Source added", "source", src.name, "size", humanize.Bytes(uint64(len(src.text))))
		added++
	}
	if added == 0 {
		_, _ = fmt.Fprintln(stderr, "trigram: add at least one non-empty source")
		return exitUsage
	}

	if opts.transitions {
		printTransitions(stdout, gen.Transitions(), opts.limit)
		return exitOK
	}

	gen.Finalize()
	text, err := gen.Generate(trigram.WithMaxTokens(maxTokens))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "trigram: %v\n", err)
		return exitError
	}
	_, _ = fmt.Fprintln(stdout, text)

	stats := gen.Stats()
	logger.Debug("Generated",
		"sources", added,
		"pairs", humanize.Comma(int64(stats.Pairs)),
		"vocab", humanize.Comma(int64(stats.VocabSize)),
	)
	return exitOK
}

// collectSources gathers bundled examples first, then files in argument
// order. Standard input is read when nothing else was named.
func collectSources(opts *options, stdin io.Reader) ([]namedSource, error) {
	var sources []namedSource

	examples := corpus.Examples()
	for _, index := range opts.examples {
		if index < 0 || index >= len(examples) {
			return nil, fmt.Errorf("%w: no example source at index %d", trigram.ErrInvalidArgument, index)
		}
		sources = append(sources, namedSource{name: examples[index].Label, text: examples[index].Text})
	}

	files := opts.files
	if len(files) == 0 && len(opts.examples) == 0 {
		files = []string{"-"}
	}

	stdinUsed := false
	for _, name := range files {
		var data []byte
		var err error
		if name == "-" {
			if stdinUsed {
				return nil, fmt.Errorf("%w: standard input named more than once", trigram.ErrInvalidArgument)
			}
			stdinUsed = true
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(name)
		}
		if err != nil {
			return nil, fmt.Errorf("could not read source %s: %w", name, err)
		}
		sources = append(sources, namedSource{name: name, text: string(data)})
	}
	return sources, nil
}

// printTransitions writes one line per pair, capped at limit pairs (0 for all).
func printTransitions(w io.Writer, transitions []trigram.Transition, limit int) {
	total := len(transitions)
	shown := total
	if limit > 0 && limit < total {
		shown = limit
	}

	if total == 0 {
		_, _ = fmt.Fprintln(w, "No transition pairs available.")
		return
	}
	for _, tr := range transitions[:shown] {
		_, _ = fmt.Fprintf(w, "%s %s -> %s\n", tr.Pair[0], tr.Pair[1], strings.Join(tr.NextTokens, ", "))
	}
	if shown < total {
		_, _ = fmt.Fprintf(w, "Showing %s of %s transition pairs.\n", humanize.Comma(int64(shown)), humanize.Comma(int64(total)))
	} else {
		_, _ = fmt.Fprintf(w, "Showing all %s transition pairs.\n", humanize.Comma(int64(total)))
	}
}
