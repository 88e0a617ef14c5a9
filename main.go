package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"pagecrawl/internal/config"
	"pagecrawl/internal/crawl"
	"pagecrawl/internal/formatter"
	"pagecrawl/internal/pagination"
	"pagecrawl/internal/render"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var version = "dev"

// exitCode is returned from RunE when the process must exit non-zero after
// the JSON result has already been printed.
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

type options struct {
	pagination bool
	maxPages   string
	engine     string
	waitFor    string
	waitTarget string
	timeout    time.Duration
	delay      time.Duration
	proxyURL   string
	userAgent  string
	browserBin string
	showUI     bool
	policy     string
	format     string
	outputFile string
	configPath string
	verbose    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(context.Background())
	var code exitCode
	switch {
	case err == nil:
		return 0
	case errors.As(err, &code):
		return int(code)
	default:
		// Flag parsing errors.
		printResult(stdout, formatter.Failure(err), "json")
		return 1
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:     "pagecrawl <url> [json-extraction-config]",
		Short:   "Render a web page and follow its pagination",
		Version: version,
		Long: `pagecrawl renders a page in a headless browser, converts it to markdown,
cleaned HTML and structured data, and prints the result as one line of JSON.
With --pagination it detects the "next page" link on every page and merges up
to --max-pages pages into one document.`,
		Example: `  # Render a single page
  pagecrawl https://example.com

  # Follow pagination for up to 3 pages and extract product names
  pagecrawl https://shop.example.com/list '{"selectors":{"name":".product h2"}}' --pagination --max-pages=3

  # Use the static engine when no browser is installed
  pagecrawl --engine static https://example.com -f markdown`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, opts, args, stdout, stderr)
		},
	}
	cmd.FParseErrWhitelist.UnknownFlags = true

	f := cmd.Flags()
	f.BoolVar(&opts.pagination, "pagination", false, "Follow pagination links and merge the pages")
	f.StringVar(&opts.maxPages, "max-pages", "", fmt.Sprintf("Maximum pages to scrape in pagination mode (default %d)", config.DefaultMaxPages))
	f.StringVarP(&opts.engine, "engine", "e", config.DefaultEngine, "Render engine ("+strings.Join(render.Engines(), ", ")+")")
	f.StringVarP(&opts.waitFor, "wait-for", "w", config.DefaultWaitFor, "Wait strategy (load, element, time)")
	f.StringVarP(&opts.waitTarget, "wait-target", "T", "", "Wait target (selector for 'element' strategy, milliseconds for 'time' strategy)")
	f.DurationVarP(&opts.timeout, "timeout", "t", config.DefaultTimeout, "Per-page render timeout")
	f.DurationVar(&opts.delay, "delay", config.DefaultDelay, "Pause between pages in pagination mode")
	f.StringVarP(&opts.proxyURL, "proxy", "p", "", "Proxy URL (e.g. http://127.0.0.1:7890), defaults to "+config.ProxyEnv)
	f.StringVar(&opts.userAgent, "user-agent", "", "User-Agent header sent by the renderer")
	f.StringVar(&opts.browserBin, "browser-bin", "", "Chrome/Chromium binary, searched on the system when empty")
	f.BoolVar(&opts.showUI, "showui", false, "Show browser UI (disable headless mode)")
	f.StringVar(&opts.policy, "policy", "", "YAML pagination policy replacing the built-in keywords and weights")
	f.StringVarP(&opts.format, "format", "f", config.DefaultFormat, "Output format ("+strings.Join(formatter.Formats(), ", ")+")")
	f.StringVarP(&opts.outputFile, "output", "o", "", "Output file path (format inferred from extension if -f not specified)")
	f.StringVar(&opts.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/pagecrawl/config.yaml)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output to stderr")

	return cmd
}

func execute(cmd *cobra.Command, opts *options, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printResult(stdout, formatter.Failure(errors.New("URL argument is required")), "json")
		return exitCode(1)
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		printResult(stdout, formatter.Failure(err), "json")
		return nil
	}

	if cmd.Flags().Changed("max-pages") {
		n, err := strconv.Atoi(strings.TrimSpace(opts.maxPages))
		if err != nil || n < 1 {
			printResult(stdout, formatter.Failure(errors.New("Invalid max-pages value")), "json")
			return exitCode(1)
		}
		cfg.MaxPages = n
	}

	if err := validate(cfg); err != nil {
		printResult(stdout, formatter.Failure(err), "json")
		return nil
	}

	logger := log.NewWithOptions(stderr, log.Options{
		Prefix:          "pagecrawl",
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	if opts.verbose {
		logger.SetLevel(log.DebugLevel)
	}

	target := normalizeURL(args[0])
	extraction := firstExtractionConfig(args[1:])

	res := scrape(cmd.Context(), cfg, opts.pagination, target, extraction, logger)
	if err := writeResult(stdout, res, cfg.Format, opts.outputFile, logger); err != nil {
		printResult(stdout, formatter.Failure(err), "json")
	}
	return nil
}

// loadConfig layers the config file under the flags the user set explicitly.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(config.FindConfigFile(opts.configPath))
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("engine") {
		cfg.Engine = opts.engine
	}
	if flags.Changed("wait-for") {
		cfg.WaitFor = opts.waitFor
	}
	if flags.Changed("wait-target") {
		cfg.WaitTarget = opts.waitTarget
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if flags.Changed("delay") {
		cfg.Delay = opts.delay
	}
	if flags.Changed("proxy") {
		cfg.Proxy = opts.proxyURL
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = opts.userAgent
	}
	if flags.Changed("browser-bin") {
		cfg.BrowserBin = opts.browserBin
	}
	if flags.Changed("showui") {
		cfg.ShowUI = opts.showUI
	}
	if flags.Changed("policy") {
		cfg.Policy = opts.policy
	}
	if flags.Changed("format") {
		cfg.Format = opts.format
	} else if opts.outputFile != "" {
		if inferred := inferFormatFromExtension(opts.outputFile); inferred != "" {
			cfg.Format = inferred
		}
	}
	return cfg, nil
}

func validate(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if slices.Contains(formatter.Formats(), cfg.Format) {
		return nil
	}
	return fmt.Errorf("invalid output format: %s", cfg.Format)
}

// scrape opens the renderer once and runs either a single render or a
// pagination crawl. Every failure is folded into the result.
func scrape(ctx context.Context, cfg *config.Config, paginate bool, target string, extraction *render.ExtractionConfig, logger *log.Logger) (res formatter.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = formatter.Failure(fmt.Errorf("unexpected error: %v", r))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	waitFor, err := render.ParseWaitStrategy(cfg.WaitFor, cfg.WaitTarget)
	if err != nil {
		return formatter.Failure(err)
	}

	r, err := render.Open(render.Config{
		Engine:     cfg.Engine,
		Headless:   !cfg.ShowUI,
		ProxyURL:   cfg.Proxy,
		BrowserBin: cfg.BrowserBin,
		UserAgent:  cfg.UserAgent,
	}, logger)
	if err != nil {
		return formatter.Failure(err)
	}
	if u, ok := r.(*render.Unavailable); ok {
		return formatter.Failure(errors.New(u.Message()))
	}

	ropts := render.Options{
		Timeout:    cfg.Timeout,
		WaitFor:    waitFor,
		WaitTarget: cfg.WaitTarget,
		Extraction: extraction,
	}

	if !paginate {
		logger.Debug("rendering single page", "url", target, "engine", r.Name())
		page, err := r.Render(ctx, target, ropts)
		if err != nil {
			return formatter.Failure(err)
		}
		return formatter.Success(page)
	}

	policy, err := loadPolicy(cfg.Policy)
	if err != nil {
		return formatter.Failure(err)
	}
	logger.Debug("pagination policy", "version", policy.Version, "engine", r.Name())

	c := crawl.New(r, pagination.NewDetector(policy, logger),
		crawl.WithDelay(cfg.Delay),
		crawl.WithLogger(logger),
	)
	doc, err := c.Crawl(ctx, target, cfg.MaxPages, ropts)
	if err != nil {
		return formatter.Failure(err)
	}
	return formatter.Success(doc)
}

func loadPolicy(path string) (*pagination.Policy, error) {
	if path == "" {
		return pagination.DefaultPolicy(), nil
	}
	return pagination.LoadPolicy(path)
}

func writeResult(stdout io.Writer, res formatter.Result, format, outputFile string, logger *log.Logger) error {
	out, err := formatter.Format(res, format)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if outputFile == "" {
		fmt.Fprintln(stdout, out)
		return nil
	}
	if err := os.WriteFile(outputFile, []byte(out+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	logger.Info("output written", "path", outputFile)
	return nil
}

func printResult(w io.Writer, res formatter.Result, format string) {
	out, err := formatter.Format(res, format)
	if err != nil {
		out = `{"success":false,"error":"failed to format output"}`
	}
	fmt.Fprintln(w, out)
}

// firstExtractionConfig returns the first argument that parses as a JSON
// extraction config. Other arguments are ignored.
func firstExtractionConfig(args []string) *render.ExtractionConfig {
	for _, arg := range args {
		if cfg := render.ParseExtractionConfig(arg); cfg != nil {
			return cfg
		}
	}
	return nil
}

// inferFormatFromExtension infers output format from file extension
func inferFormatFromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return "markdown"
	case ".json":
		return "json"
	case ".html", ".htm":
		return "html"
	default:
		return ""
	}
}

// normalizeURL adds http:// if no protocol prefix
func normalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return rawURL
	}
	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "http://" + rawURL
	}
	return rawURL
}
