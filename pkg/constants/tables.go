package constants

// System table names - the backing store for access control and metering.
// These are the snake_case names used in SQL.
const (
	TableUser       = "sf_user"
	TableSession    = "sf_session"
	TablePlan       = "sf_plan"
	TableUsageEvent = "sf_usage_event"
)
