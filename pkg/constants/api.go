package constants

// HTTP and API constants
const (
	// HTTP Headers
	HeaderAuthorization = "Authorization"

	// Auth
	BearerPrefix = "Bearer "

	// Context Keys
	ContextKeyUser  = "user"
	ContextKeyToken = "token"

	// Response Keys
	ResponseError = "error"
	FieldMessage  = "message"
)

// Plan identifiers seeded at bootstrap
const (
	PlanFree = "free"
	PlanPro  = "pro"
)
