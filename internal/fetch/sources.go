package fetch

// DefaultSources are used when no sources are configured: security and
// technology feeds matching the dashboard's categories.
func DefaultSources() []Source {
	return []Source{
		{Type: TypeRSS, Name: "Krebs on Security", URL: "https://krebsonsecurity.com/feed/", Category: "Security"},
		{Type: TypeRSS, Name: "The Hacker News", URL: "https://feeds.feedburner.com/TheHackersNews", Category: "Security"},
		{Type: TypeRSS, Name: "BleepingComputer", URL: "https://www.bleepingcomputer.com/feed/", Category: "Security"},
		{Type: TypeRSS, Name: "SecurityWeek", URL: "https://www.securityweek.com/feed/", Category: "Security"},
		{Type: TypeRSS, Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/index", Category: "Tech"},
	}
}
