package runner

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"math/big"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"jinterp/internal/config"
	"jinterp/pkg/abstract"
	"jinterp/pkg/bytecode"
	"jinterp/pkg/color"
	"jinterp/pkg/interpreter"
)

var ErrMethodNotFound = errors.New("method not found")

type Runner struct {
	Help       bool     // Show help message
	Verbose    bool     // Trace every instruction
	NoColor    bool     // Disable colored output
	Analyze    bool     // Run the sign analysis instead of executing
	ConfigFile string   // Optional TOML or YAML config file
	ClassPath  []string // Decoded class JSON files or directories of them
	Method     string   // Method to run
	Marker     string   // Annotation selecting the method table
	MaxSteps   int      // Step budget per invocation (0 = unlimited)
	MaxDepth   int      // Nested invocation limit
	Rounds     int      // Rounds of abstract interpretation
	Args       []string // Method arguments: integers or [a,b,...] arrays
	Out        io.Writer
}

// ApplyConfig copies cfg into every setting not named in explicit, the set
// of flags given on the command line.
func (r *Runner) ApplyConfig(cfg config.Config, explicit map[string]bool) {
	if !explicit["marker"] {
		r.Marker = cfg.Marker
	}
	if !explicit["max-steps"] {
		r.MaxSteps = cfg.MaxSteps
	}
	if !explicit["max-depth"] {
		r.MaxDepth = cfg.MaxDepth
	}
	if !explicit["k"] {
		r.Rounds = cfg.Rounds
	}
	if !explicit["v"] {
		r.Verbose = cfg.Verbose
	}
	if !explicit["n"] {
		r.NoColor = cfg.NoColor
	}
}

// Run loads the class path, then either executes or analyses the method.
func (r *Runner) Run() error {
	if r.Out == nil {
		r.Out = os.Stdout
	}

	log.Info("Loading classes", "path", r.ClassPath)
	table, err := bytecode.LoadTable(r.Marker, r.ClassPath...)
	if err != nil {
		return err
	}

	program, ok := table[r.Method]
	if !ok {
		names := slices.Sorted(maps.Keys(table))
		return fmt.Errorf("%w: %q (available: %s)", ErrMethodNotFound, r.Method, strings.Join(names, ", "))
	}

	heap := interpreter.NewHeap()
	locals, err := ParseArgs(heap, r.Args)
	if err != nil {
		return err
	}

	if r.Analyze {
		return r.analyze(program, locals)
	}
	return r.execute(program, table, heap, locals)
}

func (r *Runner) execute(program *bytecode.Program, table bytecode.Table, heap *interpreter.Heap, locals []interpreter.Value) error {
	opts := []interpreter.Option{
		interpreter.WithWriter(r.Out),
		interpreter.WithHeap(heap),
		interpreter.WithMaxSteps(r.MaxSteps),
	}
	if r.MaxDepth > 0 {
		opts = append(opts, interpreter.WithMaxDepth(r.MaxDepth))
	}

	it := interpreter.New(program, table, opts...)
	log.Info("Running", "method", it.Program().Name, "args", len(locals))
	res, err := it.Run(interpreter.NewFrame(locals...))
	if err != nil {
		return fmt.Errorf("interpretation failed: %w", err)
	}

	fmt.Fprintln(r.Out, color.BoldText(color.GreenText("=== Result ===")))
	fmt.Fprintln(r.Out, color.Label("status", res.Status))
	if res.Status == interpreter.StatusHalted {
		fmt.Fprintln(r.Out, color.Label("halted on", color.YellowText(res.Halt)))
	}
	if !res.Value.IsVoid() {
		fmt.Fprintln(r.Out, color.Label("value", color.BlueText(res.Value.String())))
	}
	if it.Heap().Size() > 0 {
		fmt.Fprintln(r.Out, color.Label("heap", it.Heap()))
	}
	return nil
}

func (r *Runner) analyze(program *bytecode.Program, locals []interpreter.Value) error {
	res, err := abstract.Analyze(program, abstract.Args(locals...), r.Rounds)

	fmt.Fprintln(r.Out, color.BoldText(color.GreenText("=== Sign Analysis ===")))
	for _, pc := range res.PCs() {
		in, _ := program.At(pc)
		fmt.Fprintf(r.Out, "%s %s %s\n", color.CyanText(fmt.Sprintf("%3d", pc)), color.YellowText(fmt.Sprintf("%-24s", in)), res.States[pc])
	}

	if err != nil {
		fmt.Fprintln(r.Out, color.Error(err.Error()))
		return fmt.Errorf("analysis found an error: %w", err)
	}

	convergence := "bounded"
	if res.Converged {
		convergence = "converged"
	}
	fmt.Fprintln(r.Out, color.Label("rounds", fmt.Sprintf("%d (%s)", res.Rounds, convergence)))
	if res.Returns != abstract.Bottom {
		fmt.Fprintln(r.Out, color.Label("returns", color.BlueText(res.Returns.String())))
	}
	if res.Void {
		fmt.Fprintln(r.Out, color.Label("returns", color.BlueText("void")))
	}
	for _, pc := range res.Halts {
		fmt.Fprintln(r.Out, color.Label("halts at", pc))
	}
	return nil
}

// ParseArgs turns command line arguments into entry locals. Integers become
// int values; bracketed lists such as [1,2,3] are stored in heap and passed
// by reference.
func ParseArgs(heap *interpreter.Heap, args []string) ([]interpreter.Value, error) {
	locals := make([]interpreter.Value, 0, len(args))
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if strings.HasPrefix(arg, "[") && strings.HasSuffix(arg, "]") {
			var elems []interpreter.Value
			for _, s := range strings.Split(arg[1:len(arg)-1], ",") {
				if s = strings.TrimSpace(s); s == "" {
					continue
				}
				n, err := parseInt(s)
				if err != nil {
					return nil, err
				}
				elems = append(elems, n)
			}
			locals = append(locals, interpreter.NewRef(heap.Add(elems...)))
			continue
		}

		n, err := parseInt(arg)
		if err != nil {
			return nil, err
		}
		locals = append(locals, n)
	}
	return locals, nil
}

func parseInt(s string) (interpreter.Value, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return interpreter.Value{}, fmt.Errorf("invalid argument %q: expected an integer or [a,b,...]", s)
	}
	return interpreter.Value{Kind: interpreter.KindInt, Int: n}, nil
}
