package scope

// PathScope admits a host only under a path prefix.
type PathScope struct {
	Hosts  []string `json:"hosts" yaml:"hosts"`
	Prefix string   `json:"prefix" yaml:"prefix"`
}

// Rules defines the admission policy.
type Rules struct {
	// AllowedDomains admits the domain itself and every subdomain.
	AllowedDomains []string    `json:"allowed_domains" yaml:"allowed_domains"`
	PathScoped     []PathScope `json:"path_scoped" yaml:"path_scoped"`
	// DenyPatterns are regular expressions matched against the full URL.
	DenyPatterns          []string `json:"deny_patterns" yaml:"deny_patterns"`
	CaseSensitiveDenylist bool     `json:"case_sensitive_denylist" yaml:"case_sensitive_denylist"`
	// DenyExtensions are matched against the lower-cased path, without the dot.
	DenyExtensions []string `json:"deny_extensions" yaml:"deny_extensions"`
	// TrapDepth enables the path-depth trap heuristic when positive.
	TrapDepth int `json:"trap_depth" yaml:"trap_depth"`
}

// Reason explains why a URL was rejected.
type Reason string

const (
	Admissible Reason = ""
	Seen       Reason = "seen"
	Malformed  Reason = "malformed"
	Scheme     Reason = "scheme"
	Domain     Reason = "domain"
	Denylisted Reason = "denylist"
	Extension  Reason = "extension"
	Trap       Reason = "trap"
)
