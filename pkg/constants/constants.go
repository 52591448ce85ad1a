// Package constants provides shared constants used throughout the staymap codebase.
// This includes timeouts, pagination guards, concurrency limits and formats
// that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for a single request to an upstream API
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// CalendarDayTimeout bounds one per-unit calendar lookup, retries included
	CalendarDayTimeout = 20 * time.Second

	// CycleTimeout is the timeout for one full reconciliation cycle
	CycleTimeout = 5 * time.Minute

	// SyncTimeout is the timeout for a reconciliation cycle plus the store sync
	SyncTimeout = 10 * time.Minute

	// DefaultAutoSyncInterval is the default interval between automatic syncs
	DefaultAutoSyncInterval = 15 * time.Minute

	// ShutdownTimeout bounds graceful shutdown of the server and worker
	ShutdownTimeout = 10 * time.Second

	// RetryBackoff is the base backoff duration for retries
	RetryBackoff = 500 * time.Millisecond

	// MaxRetryBackoff is the maximum backoff duration for retries
	MaxRetryBackoff = 10 * time.Second
)

// Limit constants define various limits and capacities
const (
	// MaxRetries is the maximum number of retry attempts for transient failures
	MaxRetries = 3

	// DefaultPageSize is the number of items requested per page from upstream APIs
	DefaultPageSize = 100

	// MaxPageSize is the maximum allowed page size
	MaxPageSize = 500

	// MaxPaginationIterations caps every pagination loop
	MaxPaginationIterations = 50

	// DefaultCalendarConcurrency is the size of the per-unit calendar worker pool
	DefaultCalendarConcurrency = 8

	// MaxCalendarConcurrency is the largest accepted calendar worker pool
	MaxCalendarConcurrency = 64
)

// Reservation window defaults
const (
	// DefaultLookback is how far before today the reservation window starts
	DefaultLookback = 60 * 24 * time.Hour

	// DefaultLookahead is how far after today the reservation window ends
	DefaultLookahead = 30 * 24 * time.Hour

	// DefaultRecentLimit is how many reservations the unfiltered query reads,
	// latest arrival first
	DefaultRecentLimit = 1000
)

// Rate limiting constants
const (
	// DefaultRateLimit is the default requests per second against one upstream API
	DefaultRateLimit = 10

	// BurstSize is the token bucket burst size for rate limiting
	BurstSize = 5
)

// Cache constants
const (
	// CacheTTL is the default time-to-live for cached HTTP responses
	CacheTTL = 1 * time.Minute

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 5 * time.Minute

	// CatalogCacheTTL is how long a fetched catalog stays usable as a stale fallback
	CatalogCacheTTL = 24 * time.Hour
)

// Default table names in the tabular store
const (
	// DefaultUnitsTable holds one row per unit, keyed by unit name
	DefaultUnitsTable = "units"

	// DefaultCategoriesTable holds one row per category plus the portfolio total
	DefaultCategoriesTable = "categories"

	// DefaultReportsTable holds the hourly report rows
	DefaultReportsTable = "reports"

	// DefaultOverridesTable holds manually entered cleaning overrides
	DefaultOverridesTable = "overrides"
)

// Format constants
const (
	// DateFormat is the civil date format used on the wire
	DateFormat = "2006-01-02"

	// HourBucketFormat identifies one hourly report slot (UTC)
	HourBucketFormat = "2006-01-02T15"

	// TimeFormatHuman is a human-readable time format
	TimeFormatHuman = "Jan 2, 2006 at 3:04pm MST"

	// TimeFormatFilename is the format used in generated filenames
	TimeFormatFilename = "20060102-150405"
)

// File permission constants
const (
	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)
