package crawler

import (
	"io"
	"time"

	"github.com/PentesterFlow/icscrawl/internal/logger"
	"github.com/PentesterFlow/icscrawl/internal/metrics"
	"github.com/PentesterFlow/icscrawl/internal/queue"
	"github.com/PentesterFlow/icscrawl/internal/scope"
	"github.com/PentesterFlow/icscrawl/internal/state"
)

// Option is a functional option for configuring the Crawler.
type Option func(*Crawler) error

// WithConfig replaces the whole configuration.
func WithConfig(config *Config) Option {
	return func(c *Crawler) error {
		c.config = config.Clone()
		return nil
	}
}

// WithSeeds sets the start URLs.
func WithSeeds(seeds ...string) Option {
	return func(c *Crawler) error {
		c.config.Seeds = append([]string(nil), seeds...)
		return nil
	}
}

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) Option {
	return func(c *Crawler) error {
		if n < 1 {
			n = 1
		}
		c.config.Workers = n
		return nil
	}
}

// WithPolitenessDelay sets the pause between a worker's fetches.
func WithPolitenessDelay(d time.Duration) Option {
	return func(c *Crawler) error {
		if d < 0 {
			d = 0
		}
		c.config.PolitenessDelay = d
		return nil
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Crawler) error {
		c.config.Timeout = timeout
		return nil
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Crawler) error {
		c.config.UserAgent = ua
		return nil
	}
}

// WithMinWords sets the informativeness threshold.
func WithMinWords(n int) Option {
	return func(c *Crawler) error {
		c.config.MinWords = n
		return nil
	}
}

// WithScope sets the admission rules.
func WithScope(rules scope.Rules) Option {
	return func(c *Crawler) error {
		c.config.Scope = rules
		return nil
	}
}

// WithStopWords replaces the stop-word list.
func WithStopWords(words ...string) Option {
	return func(c *Crawler) error {
		c.config.StopWords = append([]string(nil), words...)
		return nil
	}
}

// WithFrontier uses f instead of building one from the configuration.
func WithFrontier(f queue.Frontier) Option {
	return func(c *Crawler) error {
		c.frontier = f
		return nil
	}
}

// WithDownloader uses d instead of the HTTP client.
func WithDownloader(d Downloader) Option {
	return func(c *Crawler) error {
		c.downloader = d
		return nil
	}
}

// WithParser uses p instead of the HTML parser.
func WithParser(p Parser) Option {
	return func(c *Crawler) error {
		c.parser = p
		return nil
	}
}

// WithStore uses s for run snapshots.
func WithStore(s state.Store) Option {
	return func(c *Crawler) error {
		c.store = s
		return nil
	}
}

// WithResume restores the saved snapshot before crawling.
func WithResume(resume bool) Option {
	return func(c *Crawler) error {
		c.resume = resume
		return nil
	}
}

// WithOutput sets the writer the summary goes to when no output file is configured.
func WithOutput(w io.Writer) Option {
	return func(c *Crawler) error {
		c.outputWriter = w
		return nil
	}
}

// WithOutputFormat sets the summary format.
func WithOutputFormat(format string) Option {
	return func(c *Crawler) error {
		c.config.Output.Format = format
		return nil
	}
}

// WithOutputFile writes the summary to path.
func WithOutputFile(path string) Option {
	return func(c *Crawler) error {
		c.config.Output.FilePath = path
		return nil
	}
}

// WithLogDir sets the directory for diagnostic channel logs.
func WithLogDir(dir string) Option {
	return func(c *Crawler) error {
		c.config.LogDir = dir
		return nil
	}
}

// WithVerbose enables verbose output.
func WithVerbose(verbose bool) Option {
	return func(c *Crawler) error {
		c.config.Verbose = verbose
		return nil
	}
}

// WithDebug enables debug mode.
func WithDebug(debug bool) Option {
	return func(c *Crawler) error {
		c.config.Debug = debug
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Crawler) error {
		c.logger = l
		return nil
	}
}

// WithChannels sets the diagnostic channel sinks. The caller closes them.
func WithChannels(ch *logger.Channels) Option {
	return func(c *Crawler) error {
		c.channels = ch
		return nil
	}
}

// WithMetrics sets a custom metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Crawler) error {
		c.metrics = m
		return nil
	}
}
