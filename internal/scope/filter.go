// Package scope decides which discovered URLs enter the frontier.
package scope

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/PentesterFlow/icscrawl/internal/logger"
	"github.com/PentesterFlow/icscrawl/internal/state"
)

// Filter applies Rules to candidate URLs and owns the SeenSet.
type Filter struct {
	mu          sync.RWMutex
	rules       Rules
	domains     []string
	pathScoped  map[string][]string
	denyRegexps []*regexp.Regexp
	extRegexp   *regexp.Regexp
	seen        *state.SeenSet
	// admitted host+path prefixes, used by the trap heuristic
	prefixes map[string]struct{}

	admissionLog *logger.Logger
	trapLog      *logger.Logger
	onReject     func(url string, reason Reason)
}

// Option configures a Filter.
type Option func(*Filter)

// WithSeenSet uses seen instead of a fresh SeenSet.
func WithSeenSet(seen *state.SeenSet) Option {
	return func(f *Filter) {
		f.seen = seen
	}
}

// WithEventLogs sets the sinks for denylist and trap rejections.
func WithEventLogs(admission, traps *logger.Logger) Option {
	return func(f *Filter) {
		f.admissionLog = admission
		f.trapLog = traps
	}
}

// WithRejectHook registers fn to be called for every rejection made by Admit.
func WithRejectHook(fn func(url string, reason Reason)) Option {
	return func(f *Filter) {
		f.onReject = fn
	}
}

// NewFilter compiles rules. Invalid patterns are reported as errors.
func NewFilter(rules Rules, opts ...Option) (*Filter, error) {
	f := &Filter{
		rules:      rules,
		pathScoped: make(map[string][]string),
		prefixes:   make(map[string]struct{}),
	}

	for _, d := range rules.AllowedDomains {
		f.domains = append(f.domains, strings.ToLower(d))
	}

	for _, ps := range rules.PathScoped {
		prefix := strings.TrimSuffix(ps.Prefix, "/")
		for _, h := range ps.Hosts {
			h = strings.ToLower(h)
			f.pathScoped[h] = append(f.pathScoped[h], prefix)
		}
	}

	for _, pattern := range rules.DenyPatterns {
		expr := pattern
		if !rules.CaseSensitiveDenylist {
			expr = "(?i)" + pattern
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid deny pattern %q: %w", pattern, err)
		}
		f.denyRegexps = append(f.denyRegexps, re)
	}

	if len(rules.DenyExtensions) > 0 {
		exts := make([]string, len(rules.DenyExtensions))
		for i, ext := range rules.DenyExtensions {
			exts[i] = regexp.QuoteMeta(strings.ToLower(strings.TrimPrefix(ext, ".")))
		}
		f.extRegexp = regexp.MustCompile(`\.(` + strings.Join(exts, "|") + `)$`)
	}

	for _, opt := range opts {
		opt(f)
	}
	if f.seen == nil {
		f.seen = state.NewSeenSet(100000)
	}

	// Restored URLs count as admitted for the trap heuristic.
	if rules.TrapDepth > 0 {
		for _, u := range f.seen.All() {
			f.recordPrefix(u)
		}
	}

	return f, nil
}

// Seen returns the filter's SeenSet.
func (f *Filter) Seen() *state.SeenSet {
	return f.seen
}

// IsAdmissible reports whether rawURL would be admitted now.
// It has no side effects.
func (f *Filter) IsAdmissible(rawURL string) bool {
	return f.check(StripFragment(rawURL), false) == Admissible
}

// Classify returns the rule that rejects rawURL, or Admissible.
func (f *Filter) Classify(rawURL string) Reason {
	return f.check(StripFragment(rawURL), false)
}

// Admit checks rawURL and, if it is admissible and no other caller has
// claimed it, marks it seen and hands it to push. Only the caller that
// claims a URL calls push. The URL stays seen even if push fails.
func (f *Filter) Admit(rawURL string, push func(string) error) bool {
	u := StripFragment(rawURL)

	if reason := f.check(u, true); reason != Admissible {
		f.reject(u, reason)
		return false
	}

	if !f.seen.AddIfNew(u) {
		f.reject(u, Seen)
		return false
	}

	if f.rules.TrapDepth > 0 {
		f.mu.Lock()
		f.recordPrefix(u)
		f.mu.Unlock()
	}

	return push(u) == nil
}

func (f *Filter) reject(u string, reason Reason) {
	if f.onReject != nil {
		f.onReject(u, reason)
	}
}

// Validate re-runs the scheme, domain, denylist and extension rules on a
// URL that may already be seen, such as one restored from a saved frontier.
// It has no side effects.
func (f *Filter) Validate(rawURL string) Reason {
	return f.evaluate(StripFragment(rawURL), false, false)
}

// check runs the admission pipeline on a fragment-free URL.
// When emit is set, denylist and trap rejections are logged.
func (f *Filter) check(u string, emit bool) Reason {
	if f.seen.Has(u) {
		return Seen
	}
	return f.evaluate(u, emit, true)
}

func (f *Filter) evaluate(u string, emit, traps bool) Reason {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		if parsed != nil && parsed.Scheme != "" && parsed.Scheme != "http" && parsed.Scheme != "https" {
			return Scheme
		}
		return Malformed
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Scheme
	}

	host := strings.ToLower(parsed.Hostname())
	if !f.inDomain(host, parsed.Path) {
		return Domain
	}

	for _, re := range f.denyRegexps {
		if re.MatchString(u) {
			if emit && f.admissionLog != nil {
				f.admissionLog.RejectEvent(u, string(Denylisted), "pattern", re.String())
			}
			return Denylisted
		}
	}

	if f.extRegexp != nil && f.extRegexp.MatchString(strings.ToLower(parsed.Path)) {
		return Extension
	}

	if traps && f.rules.TrapDepth > 0 && f.isTrap(host, parsed.Path) {
		if emit && f.trapLog != nil {
			f.trapLog.RejectEvent(u, string(Trap), "depth", len(segments(parsed.Path)))
		}
		return Trap
	}

	return Admissible
}

// inDomain checks the hostname against allowed domains and path-scoped hosts.
func (f *Filter) inDomain(host, path string) bool {
	for _, d := range f.domains {
		if IsSubdomainOf(host, d) {
			return true
		}
	}

	for _, prefix := range f.pathScoped[host] {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}

	return false
}

// isTrap reports whether a deep path extends a path already admitted on
// the same host.
func (f *Filter) isTrap(host, path string) bool {
	segs := segments(path)
	if len(segs) <= f.rules.TrapDepth {
		return false
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for k := 1; k < len(segs); k++ {
		if _, ok := f.prefixes[host+"/"+strings.Join(segs[:k], "/")]; ok {
			return true
		}
	}
	return false
}

// recordPrefix stores the host and path of u. Callers hold f.mu.
func (f *Filter) recordPrefix(u string) {
	parsed, err := url.Parse(u)
	if err != nil {
		return
	}
	segs := segments(parsed.Path)
	f.prefixes[strings.ToLower(parsed.Hostname())+"/"+strings.Join(segs, "/")] = struct{}{}
}

func segments(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
