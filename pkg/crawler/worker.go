package crawler

import (
	"context"
	"errors"

	crawlerrors "github.com/PentesterFlow/icscrawl/internal/errors"
	"github.com/PentesterFlow/icscrawl/internal/logger"
	"github.com/PentesterFlow/icscrawl/internal/parser"
	"github.com/PentesterFlow/icscrawl/internal/queue"
	"github.com/PentesterFlow/icscrawl/internal/ratelimit"
	"github.com/PentesterFlow/icscrawl/internal/scope"
	"github.com/PentesterFlow/icscrawl/internal/state"
)

// worker pulls and processes URLs until the frontier is exhausted or ctx
// is cancelled. Cancellation is only observed between URLs.
func (c *Crawler) worker(ctx context.Context, id int) {
	log := c.logger.WithWorker(id)
	polite := ratelimit.NewPoliteness(c.config.PolitenessDelay)

	c.metrics.WorkerStarted()
	defer c.metrics.WorkerStopped()

	var stats WorkerStats
	for ctx.Err() == nil {
		u, err := c.frontier.Pull(ctx)
		if err != nil {
			if !errors.Is(err, queue.ErrEmpty) && ctx.Err() == nil {
				log.WithError(err).Error("Frontier pull failed")
			}
			break
		}

		if reason := c.filter.Validate(u); reason != scope.Admissible {
			c.dropURL(log, u, reason)
			stats.record(StatusFilteredInvalid)
			c.metrics.RecordOutcome(string(StatusFilteredInvalid))
			continue
		}

		// A URL pulled but not fetched before shutdown stays pending in a
		// persistent frontier.
		if err := polite.Wait(ctx); err != nil {
			break
		}

		status := c.processURL(context.WithoutCancel(ctx), log, u, polite.Done)
		stats.record(status)
		c.metrics.RecordOutcome(string(status))
	}

	log.StatsEvent("Worker stopped", map[string]any{
		"processed": stats.Processed,
		"ok":        stats.OK,
		"errors":    stats.Errors,
		"duplicate": stats.Duplicate,
		"filtered":  stats.Filtered,
		"thin":      stats.Thin,
	})
}

// dropURL completes a pulled URL that no longer passes the admission rules.
func (c *Crawler) dropURL(log *logger.Logger, u string, reason scope.Reason) {
	log.WithURL(u).WithField("reason", string(reason)).Debug("Dropping out-of-scope url")
	c.complete(log, u)
}

func (c *Crawler) complete(log *logger.Logger, u string) {
	if err := c.frontier.Complete(u); err != nil {
		log.WithURL(u).WithError(err).Warn("Failed to complete url")
	}
}

// processURL fetches, deduplicates and analyses one URL and admits its
// links. fetched is called as soon as the download ends. The URL is always
// completed in the frontier.
func (c *Crawler) processURL(ctx context.Context, log *logger.Logger, u string, fetched func()) Status {
	defer c.complete(log, u)

	resp := c.downloader.Fetch(ctx, u)
	fetched()
	c.metrics.RecordFetch(resp.StatusCode, len(resp.Body), resp.Duration)
	log.FetchEvent(u, resp.StatusCode, len(resp.Body), resp.Duration)

	if !resp.OK() {
		err := resp.Err
		if err == nil {
			err = crawlerrors.NewStatusError(u, resp.StatusCode)
		}
		c.metrics.RecordError(crawlerrors.GetErrorType(err).String())
		log.ErrorEvent(err, u, "fetch")
		return StatusFetchError
	}

	// A redirect may leave the allowed domains.
	if resp.FinalURL != "" && resp.FinalURL != u {
		if reason := c.filter.Validate(resp.FinalURL); reason != scope.Admissible {
			log.WithURL(u).WithField("final_url", resp.FinalURL).WithField("reason", string(reason)).
				Debug("Redirected out of scope")
			return StatusFilteredInvalid
		}
	}

	fp := state.Fingerprint(resp.Body)
	if !c.content.RecordFingerprint(fp) {
		c.channels.Get(logger.ChannelDuplicates).WithURL(u).WithField("fingerprint", fp).
			Infof("%s has the same content as an earlier page", u)
		return StatusDuplicate
	}

	base := resp.FinalURL
	if base == "" {
		base = u
	}
	doc, err := c.parser.Parse(base, resp.Body, resp.ContentType)
	if err == nil && doc == nil {
		err = crawlerrors.NewParseError(u, "no document", nil)
	}
	if err != nil {
		c.metrics.RecordError(crawlerrors.Parse.String())
		log.ErrorEvent(err, u, "parse")
		doc = &parser.Document{}
	}

	icsHost := scope.IsSubdomainOf(scope.Hostname(u), c.analytics.PrimaryDomain())
	words := c.analytics.Analyze(u, doc.Text, icsHost)
	c.metrics.RecordAnalyzed()

	if c.analytics.IsThin(words) {
		return StatusTooFewWords
	}

	admitted := 0
	for _, link := range doc.Links {
		if c.filter.Admit(link, c.frontier.Push) {
			admitted++
			c.metrics.RecordAdmitted()
		}
	}
	c.metrics.RecordLinks(len(doc.Links))
	log.WithURL(u).WithField("links", len(doc.Links)).WithField("admitted", admitted).
		Debugf("Analyzed %d words", words)

	return StatusFetchedOK
}
