// Command rrvm runs RRVM bytecode: assembling `.rr` textual source (or
// reading a prebuilt image), then either interpreting it directly or
// lowering it to TAC and dumping the result for the downstream
// term-rewriting pipeline (§6.1).
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/rrvm/asm"
	"github.com/chazu/rrvm/bytecode"
	"github.com/chazu/rrvm/internal/config"
	"github.com/chazu/rrvm/interp"
	"github.com/chazu/rrvm/tacir"
	"github.com/chazu/rrvm/vm"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("rrvm", flag.ContinueOnError)
	tac := fs.Bool("tac", false, "lower to TAC instead of interpreting")
	traceFlag := fs.Bool("trace", false, "record a per-opcode execution trace")
	traceDB := fs.String("trace-db", "rrvm-trace.db", "execution trace database path")
	configPath := fs.String("config", "", "path to an rrvm.toml overriding VM limits")
	imagePath := fs.String("image", "", "read/write a CBOR bytecode image at this path")
	fs.SetOutput(os.Stderr)

	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := log.New(os.Stderr, "rrvm: ", 0)

	// A source argument and --image are independent: give a source (or
	// "-") to assemble and optionally save the result as an image; give
	// only --image with no source to skip assembly and load a
	// previously-saved one.
	var src string
	switch {
	case fs.NArg() == 1:
		src = fs.Arg(0)
	case fs.NArg() == 0 && *imagePath != "":
		// image-only run
	default:
		fmt.Fprintln(os.Stderr, "usage: rrvm [flags] <source.rr|->")
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Println(err)
		return 2
	}

	prog, err := loadProgram(src, *imagePath, cfg.Limits.MaxFunctions)
	if err != nil {
		logger.Println(err)
		return 1
	}

	if *imagePath != "" && src != "" {
		data, err := bytecode.MarshalImage(prog)
		if err != nil {
			logger.Println(err)
			return 1
		}
		if err := os.WriteFile(*imagePath, data, 0o644); err != nil {
			logger.Println(fmt.Errorf("write image %s: %w", *imagePath, err))
			return 1
		}
	}

	var traceFn vm.TraceFunc
	if *traceFlag {
		tr, err := interp.OpenTrace(*traceDB)
		if err != nil {
			logger.Println(err)
			return 1
		}
		defer tr.Close()
		traceFn = tr.Record
	}

	state := vm.NewState(prog, cfg.Limits)

	if *tac {
		backend := tacir.New()
		if err := vm.Run(state, backend, traceFn); err != nil {
			logger.Println(err)
			return 1
		}
		if err := dumpTAC(src, backend.Prog); err != nil {
			logger.Println(err)
			return 1
		}
		return 0
	}

	backend := interp.New()
	if err := vm.Run(state, backend, traceFn); err != nil {
		logger.Println(err)
		return 1
	}
	return 0
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		cfg, _, err := config.FindAndLoad(".")
		return cfg, err
	}
	return config.LoadFile(path)
}

func loadProgram(src, imagePath string, maxFunctions int) (*bytecode.Program, error) {
	if imagePath != "" && src == "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return nil, fmt.Errorf("read image %s: %w", imagePath, err)
		}
		return bytecode.UnmarshalImage(data)
	}

	var data []byte
	var err error
	if src == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	return asm.Parse(string(data), maxFunctions)
}

// dumpTAC writes the serialized TAC stream to opt/tmp/raw/<basename>.pl
// per §6.2's persisted-state contract.
func dumpTAC(src string, prog []tacir.Instr) error {
	base := "stdin"
	if src != "" && src != "-" {
		base = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}
	dir := filepath.Join("opt", "tmp", "raw")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	out := filepath.Join(dir, base+".pl")
	return os.WriteFile(out, []byte(tacir.Serialize(prog)), 0o644)
}
