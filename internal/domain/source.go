package domain

import "time"

// SourceType identifies how a source is fetched and parsed.
type SourceType string

const (
	SourceTypeRSS     SourceType = "rss"
	SourceTypeSitemap SourceType = "xml_sitemap"
	SourceTypeWebsite SourceType = "website"
	SourceTypeWebhook SourceType = "webhook"
)

// MonitoringInterval is the configured cadence at which a source is re-checked.
type MonitoringInterval string

const (
	IntervalEvery10Min MonitoringInterval = "every_10_min"
	IntervalEvery30Min MonitoringInterval = "every_30_min"
	IntervalHourly     MonitoringInterval = "hourly"
	IntervalEvery6H    MonitoringInterval = "every_6_hours"
	IntervalDaily      MonitoringInterval = "daily"
	IntervalWeekly     MonitoringInterval = "weekly"
)

// Duration maps the interval to a fixed duration. Unknown values fall back
// to hourly so a bad row never stops rescheduling.
func (m MonitoringInterval) Duration() time.Duration {
	switch m {
	case IntervalEvery10Min:
		return 10 * time.Minute
	case IntervalEvery30Min:
		return 30 * time.Minute
	case IntervalHourly:
		return time.Hour
	case IntervalEvery6H:
		return 6 * time.Hour
	case IntervalDaily:
		return 24 * time.Hour
	case IntervalWeekly:
		return 7 * 24 * time.Hour
	default:
		return time.Hour
	}
}

// RunStatus is the outcome of the most recent check attempt.
type RunStatus string

const (
	RunStatusOK     RunStatus = "ok"
	RunStatusFailed RunStatus = "failed"
)

// Source is a monitored external endpoint owned by one team.
type Source struct {
	ID                  int64
	TeamID              int64
	Name                string
	Type                SourceType
	URL                 string
	TitleSelector       string // css selector, website sources only
	LinkSelector        string // css selector, website sources only
	Keywords            string // comma-separated, applied by the website scraper
	Interval            MonitoringInterval
	IsActive            bool
	ShouldNotify        bool
	AutoSummarize       bool
	BypassKeywordFilter bool
	LastCheckedAt       *time.Time
	NextCheckAt         *time.Time
	ConsecutiveFailures int
	FailedAt            *time.Time
	LastRunStatus       RunStatus
	LastRunError        string
	DeletedAt           *time.Time
	CreatedAt           time.Time
}

// FeedItem is one candidate item extracted from a fetched feed or page.
// Sitemap entries carry no title.
type FeedItem struct {
	URI   string
	Title string
}

// CheckStats holds statistics about one monitoring run for a source.
type CheckStats struct {
	SourceID int64
	Parsed   int
	Filtered int
	NewPosts int
	Duration time.Duration
}
