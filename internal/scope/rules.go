package scope

// DefaultAllowedDomains are the university domains in scope.
var DefaultAllowedDomains = []string{
	"ics.uci.edu",
	"cs.uci.edu",
	"informatics.uci.edu",
	"stat.uci.edu",
}

// DefaultPathScoped limits the campus news site to the ICS department.
var DefaultPathScoped = []PathScope{
	{
		Hosts:  []string{"today.uci.edu", "www.today.uci.edu"},
		Prefix: "/department/information_computer_sciences",
	},
}

// DefaultDenyPatterns reject login walls, dashboards, calendar exports and
// share links.
var DefaultDenyPatterns = []string{
	// login walls
	`wp-login\.php`,
	`/login`,
	`intranet\.ics\.uci\.edu`,
	// admin dashboards
	`wp-admin`,
	`tippersweb\.ics\.uci\.edu`,
	`/dashboard`,
	// calendars and exports
	`/calendar`,
	`ical=`,
	`outlook-ical=`,
	`tribe-bar-date=`,
	`eventDisplay=`,
	`/events/`,
	`action=download`,
	`format=txt`,
	`\?share=`,
	// social sharing
	`share=facebook`,
	`share=twitter`,
	`replytocom=`,
}

// DefaultDenyExtensions are file types that are never crawled.
var DefaultDenyExtensions = []string{
	"css", "js", "bmp", "gif", "jpg", "jpeg", "ico",
	"png", "tif", "tiff", "mid", "mp2", "mp3", "mp4",
	"wav", "avi", "mov", "mpeg", "ram", "m4v", "mkv", "ogg", "ogv", "pdf",
	"ps", "eps", "tex", "ppt", "pptx", "doc", "docx", "xls", "xlsx", "names",
	"data", "dat", "exe", "bz2", "tar", "msi", "bin", "7z", "psd", "dmg", "iso",
	"epub", "dll", "cnf", "tgz", "sha1",
	"thmx", "mso", "arff", "rtf", "jar", "csv",
	"rm", "smil", "wmv", "swf", "wma", "zip", "rar", "gz",
}

// DefaultRules returns the admission policy for the ICS crawl.
func DefaultRules() Rules {
	return Rules{
		AllowedDomains: append([]string(nil), DefaultAllowedDomains...),
		PathScoped:     append([]PathScope(nil), DefaultPathScoped...),
		DenyPatterns:   append([]string(nil), DefaultDenyPatterns...),
		DenyExtensions: append([]string(nil), DefaultDenyExtensions...),
	}
}
