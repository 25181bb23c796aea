package main

import (
	"flag"
	"fmt"
	"jinterp/internal/config"
	"jinterp/internal/logger"
	"jinterp/internal/runner"
	"jinterp/pkg/color"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Main entry point for the jinterp bytecode interpreter.
func main() {
	defaults := config.Default()
	options := runner.Runner{}

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode (trace every instruction)")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.BoolVar(&options.Analyze, "a", false, "Run the sign analysis instead of executing")
	flag.StringVar(&options.Method, "m", "main", "Method to run")
	flag.StringVar(&options.ConfigFile, "config", "", "Config file (.toml, .yaml)")
	flag.StringVar(&options.Marker, "marker", defaults.Marker, "Annotation selecting runnable methods (empty = all)")
	flag.IntVar(&options.Rounds, "k", defaults.Rounds, "Rounds of abstract interpretation")
	flag.IntVar(&options.MaxSteps, "max-steps", defaults.MaxSteps, "Step budget per invocation (0 = unlimited)")
	flag.IntVar(&options.MaxDepth, "max-depth", defaults.MaxDepth, "Maximum nested invocation depth")

	flag.Parse()
	args := flag.Args()

	if options.ConfigFile != "" {
		cfg, err := config.Load(options.ConfigFile)
		if err != nil {
			logger.Init(options.Verbose, options.NoColor)
			log.Fatal("Invalid config", "error", err)
		}
		explicit := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		options.ApplyConfig(cfg, explicit)
	}

	logger.Init(options.Verbose, options.NoColor)
	if options.Help {
		fmt.Printf("Usage: %s [options] <classpath> [args...]\n", os.Args[0])
		fmt.Printf("The class path lists class JSON files or directories separated by %q.\n", filepath.ListSeparator)
		fmt.Println("Arguments are integers or arrays written as [a,b,...].")
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if options.NoColor {
		color.EnableColor(false)
	}

	if len(args) == 0 {
		log.Fatal("No class path provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	}

	options.ClassPath = filepath.SplitList(args[0])
	options.Args = args[1:]

	if err := options.Run(); err != nil {
		log.Fatal("Run failed", "error", err)
	}
}
