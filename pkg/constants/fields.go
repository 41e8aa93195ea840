package constants

// Field names - the snake_case column names used in storage and SQL.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldCreatedDate = "created_date"

	// User fields
	FieldEmail         = "email"
	FieldPassword      = "password"
	FieldPlanID        = "plan_id"
	FieldIsAdmin       = "is_admin"
	FieldIsActive      = "is_active"
	FieldLastLoginDate = "last_login_date"

	// Session fields
	FieldUserID       = "user_id"
	FieldToken        = "token"
	FieldExpiresAt    = "expires_at"
	FieldIPAddress    = "ip_address"
	FieldUserAgent    = "user_agent"
	FieldIsRevoked    = "is_revoked"
	FieldLastActivity = "last_activity"

	// Plan fields
	FieldMonthlyQuota    = "monthly_quota"
	FieldEntitlementRule = "entitlement_rule"

	// Usage event fields
	FieldModel       = "model"
	FieldPromptBytes = "prompt_bytes"
	FieldOutputBytes = "output_bytes"
	FieldDurationMS  = "duration_ms"
)
