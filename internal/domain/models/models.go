package models

import "time"

// User is an account in the access-control layer. Password holds the bcrypt
// hash, never the plain text.
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Password      string     `json:"-"`
	PlanID        string     `json:"plan_id"`
	IsAdmin       bool       `json:"is_admin"`
	IsActive      bool       `json:"is_active"`
	CreatedDate   time.Time  `json:"created_date"`
	LastLoginDate *time.Time `json:"last_login_date,omitempty"`
}

// Session is a persisted login session backing a JWT. The JWT ID (jti) is the
// session primary key so revocation checks are a single lookup.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	IsRevoked    bool      `json:"is_revoked"`
	LastActivity time.Time `json:"last_activity"`
	CreatedDate  time.Time `json:"created_date"`
}

// Plan is a paid tier. MonthlyQuota of 0 means unlimited; EntitlementRule is
// an expression evaluated against {is_admin, used, quota} that answers
// whether the caller may generate.
type Plan struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	MonthlyQuota    int       `json:"monthly_quota"`
	EntitlementRule string    `json:"entitlement_rule"`
	CreatedDate     time.Time `json:"created_date"`
}

// UsageEvent is one row of the per-user usage ledger: a single successful
// generation.
type UsageEvent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Model       string    `json:"model"`
	PromptBytes int       `json:"prompt_bytes"`
	OutputBytes int       `json:"output_bytes"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedDate time.Time `json:"created_date"`
}
