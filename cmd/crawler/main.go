package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/PentesterFlow/icscrawl/internal/output"
	"github.com/PentesterFlow/icscrawl/internal/progress"
	"github.com/PentesterFlow/icscrawl/internal/state"
	"github.com/PentesterFlow/icscrawl/pkg/crawler"
)

var (
	version = "1.0.0"

	// Global flags
	configFile string
	verbose    bool
	debug      bool

	// Crawl flags
	workers         int
	politenessDelay time.Duration
	timeout         time.Duration
	minWords        int
	maxRetries      int
	trapDepth       int
	userAgent       string
	outputFile      string
	outputFormat    string
	stateFile       string
	frontierFile    string
	logDir          string
	restart         bool
	memoryFrontier  bool
	noProgress      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "icscrawl",
		Short: "icscrawl - restricted-domain crawler with page analytics",
		Long: `icscrawl crawls the UCI ICS web domains with a fixed pool of polite workers.

Every unique page is tokenized to build a word-frequency table, track the
longest page and count pages per ics.uci.edu subdomain.`,
		Version: version,
	}

	// Crawl command
	crawlCmd := &cobra.Command{
		Use:   "crawl [seed...]",
		Short: "Start a crawl",
		Long:  "Start a crawl from the configured seeds, or from the URLs given as arguments.",
		RunE:  runCrawl,
	}

	// Resume command
	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume an interrupted crawl",
		Long:  "Resume a crawl from its saved frontier and state files.",
		Args:  cobra.NoArgs,
		RunE:  runResume,
	}

	// Summary command
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the summary of a saved crawl",
		Args:  cobra.NoArgs,
		RunE:  runSummary,
	}

	// Config command
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the default configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfig,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug mode")

	// Crawl flags
	for _, cmd := range []*cobra.Command{crawlCmd, resumeCmd} {
		cmd.Flags().IntVarP(&workers, "workers", "w", 1, "Number of concurrent workers")
		cmd.Flags().DurationVar(&politenessDelay, "delay", 500*time.Millisecond, "Pause between fetches of one worker")
		cmd.Flags().DurationVarP(&timeout, "timeout", "t", 30*time.Second, "Request timeout")
		cmd.Flags().IntVar(&minWords, "min-words", 100, "Pages with fewer words are not link-extracted")
		cmd.Flags().IntVar(&maxRetries, "max-retries", 0, "Downloader retries for network failures")
		cmd.Flags().IntVar(&trapDepth, "trap-depth", 0, "Path depth above which repeated prefixes are treated as traps (0 = off)")
		cmd.Flags().StringVar(&userAgent, "user-agent", "", "User-Agent header")
		cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Summary file (default: stdout)")
		cmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Summary format (json, text, markdown)")
		cmd.Flags().StringVar(&stateFile, "state-file", "", "Run state file")
		cmd.Flags().StringVar(&frontierFile, "frontier-file", "", "Frontier save file")
		cmd.Flags().StringVar(&logDir, "log-dir", "", "Directory for diagnostic logs")
		cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress line")
	}
	crawlCmd.Flags().BoolVar(&restart, "restart", false, "Discard a saved frontier and start from the seeds")
	crawlCmd.Flags().BoolVar(&memoryFrontier, "memory-frontier", false, "Keep the frontier in memory only")

	// Summary flags
	summaryCmd.Flags().StringVar(&stateFile, "state-file", "", "Run state file")
	summaryCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Summary format (json, text, markdown)")
	summaryCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Summary file (default: stdout)")

	// Config flags
	configCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the configuration to a file")

	// Add commands
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file if one was given, then applies the
// flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*crawler.Config, error) {
	config := crawler.DefaultConfig()
	if configFile != "" {
		fileConfig, err := crawler.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		config = fileConfig
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		config.Workers = workers
	}
	if flags.Changed("delay") {
		config.PolitenessDelay = politenessDelay
	}
	if flags.Changed("timeout") {
		config.Timeout = timeout
	}
	if flags.Changed("min-words") {
		config.MinWords = minWords
	}
	if flags.Changed("max-retries") {
		config.MaxRetries = maxRetries
	}
	if flags.Changed("trap-depth") {
		config.Scope.TrapDepth = trapDepth
	}
	if flags.Changed("user-agent") {
		config.UserAgent = userAgent
	}
	if flags.Changed("output") {
		config.Output.FilePath = outputFile
	}
	if flags.Changed("format") {
		config.Output.Format = outputFormat
	}
	if flags.Changed("state-file") {
		config.State.Enabled = true
		config.State.Path = stateFile
	}
	if flags.Changed("frontier-file") {
		config.Frontier.Persistent = true
		config.Frontier.Path = frontierFile
	}
	if flags.Changed("log-dir") {
		config.LogDir = logDir
	}
	if verbose {
		config.Verbose = true
	}
	if debug {
		config.Debug = true
	}

	return config, nil
}

func runCrawl(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		config.Seeds = args
	}
	config.Frontier.Restart = restart
	if memoryFrontier {
		config.Frontier.Persistent = false
	}

	c, err := crawler.New(crawler.WithConfig(config))
	if err != nil {
		return fmt.Errorf("failed to create crawler: %w", err)
	}

	printBanner(config)
	return run(c, config)
}

func runResume(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	config.Frontier.Persistent = true
	config.Frontier.Restart = false
	config.State.Enabled = true

	c, err := crawler.New(crawler.WithConfig(config), crawler.WithResume(true))
	if err != nil {
		return fmt.Errorf("failed to create crawler: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Resuming crawl from %s and %s\n", config.Frontier.Path, config.State.Path)
	return run(c, config)
}

// run crawls until the frontier is exhausted or the process is interrupted.
func run(c *crawler.Crawler, config *crawler.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	finished := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, finishing in-flight pages...\n")
		case <-finished:
		}
	}()

	// Log lines would break the progress line
	var display *progress.Display
	displayDone := make(chan struct{})
	if !noProgress && !config.Verbose && !config.Debug {
		display = progress.New(os.Stderr)
		go func() {
			display.Run(finished, time.Second, c.Metrics().Snapshot)
			close(displayDone)
		}()
	} else {
		close(displayDone)
	}

	summary, err := c.Start(ctx)
	close(finished)
	<-displayDone
	if err != nil {
		if summary == nil {
			return fmt.Errorf("crawl failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	printSummary(summary)
	return nil
}

func runSummary(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := state.Open(config.State.Path)
	if err != nil {
		return fmt.Errorf("failed to open state: %w", err)
	}
	defer store.Close()

	summary, err := crawler.LoadSummary(store)
	if err != nil {
		return err
	}

	w, err := output.Open(config.Output, os.Stdout)
	if err != nil {
		return err
	}
	defer w.Close()

	return w.WriteSummary(summary)
}

func runConfig(cmd *cobra.Command, args []string) error {
	config := crawler.DefaultConfig()

	if outputFile != "" {
		if err := config.SaveToFile(outputFile); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Configuration written to %s\n", outputFile)
		return nil
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func printBanner(config *crawler.Config) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "icscrawl v%s\n", version)
	fmt.Fprintf(os.Stderr, "Seeds:      %d\n", len(config.Seeds))
	fmt.Fprintf(os.Stderr, "Workers:    %d\n", config.Workers)
	fmt.Fprintf(os.Stderr, "Delay:      %v\n", config.PolitenessDelay)
	fmt.Fprintf(os.Stderr, "Min Words:  %d\n", config.MinWords)
	if config.Frontier.Persistent {
		fmt.Fprintf(os.Stderr, "Frontier:   %s\n", config.Frontier.Path)
	}
	fmt.Fprintln(os.Stderr)
}

func printSummary(s *crawler.Summary) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Crawl Summary")
	fmt.Fprintf(os.Stderr, "Duration:          %v\n", s.Duration.Round(time.Second))
	fmt.Fprintf(os.Stderr, "Unique URLs:       %d\n", s.UniqueURLs)
	fmt.Fprintf(os.Stderr, "Unique Downloads:  %d\n", s.UniqueDownloads)
	if s.Longest.URL != "" {
		fmt.Fprintf(os.Stderr, "Longest Page:      %s (%d words)\n", s.Longest.URL, s.Longest.Words)
	}
	fmt.Fprintf(os.Stderr, "Subdomains:        %d\n", len(s.Subdomains))
	if s.Interrupted {
		fmt.Fprintln(os.Stderr, "Status:            interrupted (resume to continue)")
	}

	if top := s.TopWords(10); len(top) > 0 {
		fmt.Fprintln(os.Stderr, "Top Words:")
		for _, w := range top {
			fmt.Fprintf(os.Stderr, "  %-20s %d\n", w.Word, w.Count)
		}
	}
	fmt.Fprintln(os.Stderr)
}
