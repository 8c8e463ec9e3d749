// Command redactkit anonymizes scanned documents from the command line.
// It runs the full pipeline (rasterize, OCR, detect, redact, export) on each
// input file, enforcing the free-tier quota and file-size cap unless the
// installation has been activated with a valid credential.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/wudi/redactkit/export"
	"github.com/wudi/redactkit/license"
	"github.com/wudi/redactkit/observability"
	_ "github.com/wudi/redactkit/ocr/tesseract" // install the default OCR engine
	"github.com/wudi/redactkit/pipeline"
)

// saltEnv names the environment variable carrying the credential salt.
// A .env file in the working directory is loaded first if present.
const saltEnv = "REDACTKIT_SALT"

type options struct {
	inputs     []string
	outDir     string
	format     string
	anonymize  bool
	block      int
	quality    float64
	textOnly   bool
	configPath string
	activate   string
	issue      bool
	ruleScript string
}

// fileConfig is the YAML configuration file shape. Flags win over file
// values; the file exists so batch invocations don't repeat them.
type fileConfig struct {
	Format     string   `yaml:"format"`
	Anonymize  *bool    `yaml:"anonymize"`
	Block      int      `yaml:"block"`
	Quality    float64  `yaml:"quality"`
	Languages  []string `yaml:"languages"`
	RuleScript string   `yaml:"rule_script"`
	StateDir   string   `yaml:"state_dir"`
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "redactkit: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "redactkit: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: redactkit [flags] <file>...\n")
		flag.PrintDefaults()
	}
	in := flag.String("in", "", "Comma-separated input files (alternative to positional args)")
	flag.StringVar(&opts.outDir, "out", ".", "Output directory")
	flag.StringVar(&opts.format, "format", "jpeg", "Output format: jpeg, png or pdf")
	flag.BoolVar(&opts.anonymize, "anonymize", true, "Redact detected sensitive values")
	flag.IntVar(&opts.block, "block", 10, "Pixelation block size (1-50)")
	flag.Float64Var(&opts.quality, "quality", 0.9, "Output quality for lossy formats (0-1]")
	flag.BoolVar(&opts.textOnly, "text-only", false, "Print recognized text instead of writing an image")
	flag.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flag.StringVar(&opts.activate, "activate", "", "Activate this installation with a credential")
	flag.BoolVar(&opts.issue, "issue", false, "Issue a fresh credential for the configured salt")
	flag.Parse()

	opts.inputs = flag.Args()
	if *in != "" {
		for _, p := range strings.Split(*in, ",") {
			if p = strings.TrimSpace(p); p != "" {
				opts.inputs = append(opts.inputs, p)
			}
		}
	}
	if len(opts.inputs) == 0 && opts.activate == "" && !opts.issue {
		return opts, errors.New("no input files")
	}
	return opts, nil
}

func run(opts options) error {
	// Missing .env is fine; the salt may come from the environment proper.
	_ = godotenv.Load()
	salt := os.Getenv(saltEnv)

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	applyConfig(&opts, cfg)

	stateDir := cfg.StateDir
	if stateDir == "" {
		stateDir = defaultStateDir()
	}
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return fmt.Errorf("state dir: %w", err)
	}

	if opts.issue {
		if salt == "" {
			return fmt.Errorf("%s is not set", saltEnv)
		}
		fmt.Println(license.Generate(time.Now(), salt))
		return nil
	}
	if opts.activate != "" {
		return activate(opts.activate, salt, stateDir)
	}

	state, err := loadState(stateDir)
	if err != nil {
		return err
	}

	format, err := parseFormat(opts.format)
	if err != nil {
		return err
	}
	script, err := loadRuleScript(opts.ruleScript)
	if err != nil {
		return err
	}

	logger := observability.NewSlog(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	orch := pipeline.New(pipeline.Config{
		Logger:    logger,
		Languages: cfg.Languages,
	})
	defer orch.Destroy()
	unsub := orch.OnProgress(func(ev pipeline.ProgressEvent) {
		fmt.Printf("  %3.0f%% %s\n", ev.Progress*100, ev.Message)
	})
	defer unsub()

	popts := pipeline.Options{
		Anonymize:       opts.anonymize,
		BlurBlockSize:   opts.block,
		OutputQuality:   opts.quality,
		ExtractTextOnly: opts.textOnly,
		Format:          format,
		RuleScript:      script,
		Watermark:       !state.tier.IsPremium(),
	}

	for _, path := range opts.inputs {
		if err := processFile(orch, state, path, opts.outDir, popts); err != nil {
			// Quota exhaustion abandons the rest of the batch; any other
			// failure is also terminal so partial batches are obvious.
			return err
		}
	}
	return nil
}

func processFile(orch *pipeline.Orchestrator, state *cliState, path, outDir string, popts pipeline.Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !state.tier.AllowsFileSize(int64(len(data))) {
		return fmt.Errorf("%s: exceeds the free tier file size limit", path)
	}
	if free, ok := state.tier.(*license.Free); ok {
		if !free.Consume(time.Now()) {
			return errors.New("free tier daily quota exhausted")
		}
		// Persist immediately so a failure later in the batch cannot roll
		// back credits already spent.
		if err := state.save(); err != nil {
			return err
		}
	}

	fmt.Printf("%s\n", path)
	res, err := orch.Process(context.Background(), pipeline.Document{Data: data, Name: filepath.Base(path)}, popts)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if popts.ExtractTextOnly {
		fmt.Println(res.Text)
		return nil
	}
	out := outputPath(outDir, path, popts.Format)
	if err := os.WriteFile(out, res.Encoded, 0o644); err != nil {
		return err
	}
	fmt.Printf("  -> %s (%d entities redacted)\n", out, res.EntitiesFound)
	return nil
}

func activate(credential, salt, stateDir string) error {
	if salt == "" {
		return fmt.Errorf("%s is not set", saltEnv)
	}
	store, err := license.OpenFileStore(filepath.Join(stateDir, "credentials.json"))
	if err != nil {
		return err
	}
	if !license.NewValidator(salt, store).Validate(credential) {
		return errors.New("invalid or already used credential")
	}
	if err := os.WriteFile(filepath.Join(stateDir, "premium"), []byte("1\n"), 0o600); err != nil {
		return err
	}
	fmt.Println("activation successful")
	return nil
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// applyConfig fills option values the user left at their defaults from the
// configuration file.
func applyConfig(opts *options, cfg fileConfig) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if cfg.Format != "" && !set["format"] {
		opts.format = cfg.Format
	}
	if cfg.Anonymize != nil && !set["anonymize"] {
		opts.anonymize = *cfg.Anonymize
	}
	if cfg.Block != 0 && !set["block"] {
		opts.block = cfg.Block
	}
	if cfg.Quality != 0 && !set["quality"] {
		opts.quality = cfg.Quality
	}
	opts.ruleScript = cfg.RuleScript
}

func parseFormat(s string) (export.Format, error) {
	switch export.Format(strings.ToLower(s)) {
	case export.FormatJPEG:
		return export.FormatJPEG, nil
	case export.FormatPNG:
		return export.FormatPNG, nil
	case export.FormatPDF:
		return export.FormatPDF, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

func loadRuleScript(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("rule script: %w", err)
	}
	return string(data), nil
}

func outputPath(outDir, in string, format export.Format) string {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	ext := string(format)
	if format == export.FormatJPEG {
		ext = "jpg"
	}
	return filepath.Join(outDir, base+"_redacted."+ext)
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "redactkit")
	}
	return ".redactkit"
}
