package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/sunholo/felis/internal/config"
	"github.com/sunholo/felis/internal/pipeline"
	"github.com/sunholo/felis/internal/repl"
)

var (
	// Version info - set by ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"

	// Color output
	red  = color.New(color.FgRed).SprintFunc()
	cyan = color.New(color.FgCyan).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		versionFlag  = flag.Bool("version", false, "Print version information")
		helpFlag     = flag.Bool("help", false, "Show help")
		ptxFlag      = flag.Bool("ptx", false, "Enable the PTX backend (emit a CUDA host binary)")
		dumpResolved = flag.Bool("dump-resolved", false, "Print the resolved item list before elaboration")
		dumpTyped    = flag.Bool("dump-typed", false, "Print every procedure's inferred type and local layout")
		configPath   = flag.String("config", "", "Path to an optional felis.yaml settings overlay")
		outPath      = flag.String("o", "", "Write assembly to a file instead of stdout")
	)

	flag.Parse()

	if *versionFlag {
		printVersion()
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	command := flag.Arg(0)

	switch command {
	case "build":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing file argument\n", red("Error"))
			fmt.Println("Usage: felis build <file.fe>")
			os.Exit(1)
		}
		buildFile(flag.Arg(1), buildConfig(*configPath, *ptxFlag, *dumpResolved, *dumpTyped), *outPath)

	case "check":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing file argument\n", red("Error"))
			fmt.Println("Usage: felis check <file.fe>")
			os.Exit(1)
		}
		checkFile(flag.Arg(1), buildConfig(*configPath, *ptxFlag, *dumpResolved, *dumpTyped))

	case "repl":
		repl.Run(os.Stdout)

	default:
		// `felis prog.fe` is shorthand for `felis build prog.fe`.
		if _, err := os.Stat(command); err == nil {
			buildFile(command, buildConfig(*configPath, *ptxFlag, *dumpResolved, *dumpTyped), *outPath)
			return
		}
		fmt.Fprintf(os.Stderr, "%s: unknown command '%s'\n", red("Error"), command)
		printHelp()
		os.Exit(1)
	}
}

func buildConfig(configPath string, ptx, dumpResolved, dumpTyped bool) config.Config {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.PTX = ptx
	cfg.DumpCore = dumpResolved
	cfg.DumpTyped = dumpTyped
	return cfg
}

func compile(path string, cfg config.Config) *pipeline.Result {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := pipeline.Compile(ctx, filepath.Base(path), string(src), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", red("Error"), pipeline.RenderError(err))
		os.Exit(1)
	}

	if cfg.DumpCore {
		fmt.Fprint(os.Stderr, pipeline.DumpResolved(result.Resolved))
	}
	if cfg.DumpTyped {
		fmt.Fprint(os.Stderr, pipeline.DumpTyped(result.Typed))
	}
	return result
}

func buildFile(path string, cfg config.Config, outPath string) {
	result := compile(path, cfg)
	if outPath == "" {
		fmt.Print(result.X86)
		return
	}
	if err := os.WriteFile(outPath, []byte(result.X86), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}
}

func checkFile(path string, cfg config.Config) {
	compile(path, cfg)
	fmt.Fprintf(os.Stderr, "%s: %s\n", bold("OK"), path)
}

func printVersion() {
	fmt.Printf("Felis %s\n", bold(Version))
	if Commit != "unknown" {
		fmt.Printf("Commit: %s\n", Commit)
	}
	if BuildTime != "unknown" {
		fmt.Printf("Built:  %s\n", BuildTime)
	}
}

func printHelp() {
	fmt.Println(bold("Felis - a small dependently-typed language"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  felis <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %s <file>    Compile a Felis program to x86-64 assembly on stdout\n", cyan("build"))
	fmt.Printf("  %s <file>    Parse, resolve, and type-check without emitting code\n", cyan("check"))
	fmt.Printf("  %s           Start the interactive term-elaboration REPL\n", cyan("repl"))
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --ptx             Also emit a PTX kernel and a CUDA host prologue")
	fmt.Println("  --o <path>        Write assembly to a file instead of stdout")
	fmt.Println("  --dump-resolved   Print the resolved item list (stderr)")
	fmt.Println("  --dump-typed      Print inferred procedure types (stderr)")
	fmt.Println("  --config <path>   Load a felis.yaml settings overlay")
	fmt.Println("  --version         Print version information")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  %s            # compile to stdout\n", cyan("felis build main.fe"))
	fmt.Printf("  %s      # compile with the GPU backend\n", cyan("felis --ptx build main.fe"))
}
