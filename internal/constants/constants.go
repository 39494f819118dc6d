package constants

const (
	// Traffic constants
	BytesInGB = 1024 * 1024 * 1024

	// Duration constants
	MillisecondsInDay = 24 * 60 * 60 * 1000

	// Network constants
	DefaultTimeout = 30 // seconds

	// Session cache constants
	SessionTTL = 30 // minutes

	// Provisioning constants
	ClientIPLimit  = 1
	EmailRandRange = 10000

	// Bot constants
	DefaultRateLimitMs        = 2000
	RateLimitCleanupInterval  = 5 // minutes
	DefaultFreeGB             = 1
	DefaultFreeExpireDays     = 30
	DefaultFreeClaimCooldown  = 30 // days
	DefaultRemarkSuffix       = "( mmkeys_bot )"
	MaxDurationDays           = 3650
	DefaultCouponUses         = 1
	CouponCodePrefix          = "GIFT-"
	CouponCodeLength          = 6
	QRCodeSize                = 256
	JobTimeout                = 5 // minutes
	DefaultHTTPListen         = ":8090"
	DefaultDatabaseDriver     = "sqlite"
	DefaultDatabaseDSN        = "data/bot.db"
	DefaultSweepSchedule      = "@hourly"
	DefaultReportSchedule     = "0 8 * * *"
	DefaultLongPollerTimeout  = 10 // seconds
	ServerStatusCheckDeadline = 15 // seconds

	// Formatting constants
	TimestampFormat = "2006-01-02 15:04:05"
	DateFormat      = "2006-01-02"
)
