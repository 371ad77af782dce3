// Command mapalg compiles and runs map-algebra scripts.
//
// Usage:
//
//	mapalg [options] <script.ma>
//	cat script.ma | mapalg [options]
//
// Options:
//
//	-image name=WxH[:fill]  Bind a synthetic image to a script variable
//	                        (repeatable). Variables the script assigns
//	                        become outputs; the rest are inputs.
//	-run                    Execute the script after compiling
//	-config <file>          Use specific config file
//	-no-config              Ignore config files
//	-verbose                Enable debug logging of compiler passes
//	-version                Print version and exit
//
// Config file:
//
//	mapalg looks for mapalg.json or .mapalgrc in the current directory
//	and parent directories. Config file options are overridden by CLI
//	flags.
//
// Example mapalg.json:
//
//	{
//	    "images": {
//	        "result": {"width": 100, "height": 100},
//	        "src": {"width": 100, "height": 100, "fill": 1.5}
//	    },
//	    "run": true
//	}
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rasterkit/mapalg/internal/compiler"
	"github.com/rasterkit/mapalg/internal/config"
	"github.com/rasterkit/mapalg/internal/raster"
	"github.com/rasterkit/mapalg/pkg/api"
)

var version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// imageFlags collects repeated -image flags as name=WxH[:fill] specs.
type imageFlags struct {
	specs map[string]config.ImageSpec
}

func (f *imageFlags) String() string { return "" }

func (f *imageFlags) Set(value string) error {
	name, dims, ok := strings.Cut(value, "=")
	if !ok || name == "" {
		return fmt.Errorf("image spec %q: want name=WxH[:fill]", value)
	}
	dims, fillStr, hasFill := strings.Cut(dims, ":")
	wStr, hStr, ok := strings.Cut(dims, "x")
	if !ok {
		return fmt.Errorf("image spec %q: want name=WxH[:fill]", value)
	}
	w, err := strconv.Atoi(wStr)
	if err != nil || w <= 0 {
		return fmt.Errorf("image spec %q: bad width", value)
	}
	h, err := strconv.Atoi(hStr)
	if err != nil || h <= 0 {
		return fmt.Errorf("image spec %q: bad height", value)
	}
	spec := config.ImageSpec{Width: w, Height: h}
	if hasFill {
		fill, err := strconv.ParseFloat(fillStr, 64)
		if err != nil {
			return fmt.Errorf("image spec %q: bad fill value", value)
		}
		spec.Fill = fill
	}
	if f.specs == nil {
		f.specs = make(map[string]config.ImageSpec)
	}
	f.specs[name] = spec
	return nil
}

func run() error {
	var (
		images      imageFlags
		doRun       bool
		configFile  string
		noConfig    bool
		verbose     bool
		showVersion bool
	)

	flag.Var(&images, "image", "Bind a synthetic image: `name=WxH[:fill]` (repeatable)")
	flag.BoolVar(&doRun, "run", false, "Execute the script after compiling")
	flag.StringVar(&configFile, "config", "", "Use specific config `file`")
	flag.BoolVar(&noConfig, "no-config", false, "Ignore config files")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging of compiler passes")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "mapalg - map-algebra script compiler v%s\n\n", version)
		fmt.Fprintf(os.Stderr, "Usage: mapalg [options] <script.ma>\n")
		fmt.Fprintf(os.Stderr, "       cat script.ma | mapalg [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("mapalg v%s\n", version)
		return nil
	}

	cfg := &config.Config{}
	if !noConfig {
		var fileCfg *config.Config
		var err error
		if configFile != "" {
			fileCfg, err = config.LoadFile(configFile)
		} else {
			cwd, _ := os.Getwd()
			fileCfg, _, err = config.Load(cwd)
		}
		if err != nil {
			return err
		}
		cfg.Merge(fileCfg)
	}
	cfg.Merge(&config.Config{Images: images.specs})
	if doRun {
		cfg.Run = &doRun
	}
	if verbose {
		cfg.Verbose = &verbose
	}

	source, err := readSource(flag.Args())
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if cfg.Verbose != nil && *cfg.Verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()
	}

	bindings := make(map[string]*raster.Image, len(cfg.Images))
	for name, spec := range cfg.Images {
		bindings[name] = raster.NewFilled(spec.Width, spec.Height, spec.Fill)
	}

	program, err := compiler.New(compiler.WithLogger(logger)).Compile(source, bindings)
	if err != nil {
		fmt.Fprint(os.Stderr, api.Report(err))
		return fmt.Errorf("compilation failed")
	}

	rt := program.Runtime()
	fmt.Printf("compiled: %d steps, %d locals, %d inputs, %d outputs\n",
		len(rt.Steps), len(rt.Slots), len(rt.Inputs), len(rt.Outputs))

	if cfg.Run == nil || !*cfg.Run {
		return nil
	}
	if err := program.Run(); err != nil {
		return err
	}
	for _, name := range rt.Outputs {
		printSummary(name, program.Image(name))
	}
	return nil
}

// readSource reads the script from the file argument, or stdin when no
// argument is given.
func readSource(args []string) (string, error) {
	if len(args) > 1 {
		return "", fmt.Errorf("expected at most one script file, got %d", len(args))
	}
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// printSummary prints min/max/mean statistics for an output image.
func printSummary(name string, img *raster.Image) {
	min, max := math.Inf(1), math.Inf(-1)
	sum, count := 0.0, 0
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			v := img.Get(x, y)
			if math.IsNaN(v) {
				continue
			}
			min = math.Min(min, v)
			max = math.Max(max, v)
			sum += v
			count++
		}
	}
	if count == 0 {
		fmt.Printf("%s: %dx%d, all NaN\n", name, img.Width(), img.Height())
		return
	}
	fmt.Printf("%s: %dx%d, min=%g max=%g mean=%g\n",
		name, img.Width(), img.Height(), min, max, sum/float64(count))
}
