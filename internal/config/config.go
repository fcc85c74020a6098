package config

const (
	DefaultTimeZone = "America/New_York"

	// Job schedules (cron expressions).
	DefaultClassificationSchedule = "0 18 * * *" // nightly classification sweep at 6 PM
	DefaultDetectionSchedule      = "0 2 * * *"  // recurring detection at 2 AM
	DefaultMissedSchedule         = "0 8 * * *"  // missed-payment scan at 8 AM

	// ClassificationBatchSize bounds one bulk UPDATE of the sweep.
	ClassificationBatchSize = 500

	// DetectionLookbackMonths is how much history the recurring detector
	// considers; yearly cadences need a little over a year of it.
	DetectionLookbackMonths = 14
)
