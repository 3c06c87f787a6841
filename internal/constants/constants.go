package constants

// Centralized constants for env keys, routes, JSON keys and log fields.
const (
	// Environment variable keys
	EnvAddr                = "TRIBAL_ADDR"
	EnvSessionSecret       = "SESSION_SECRET"
	EnvSessionSecureCookie = "SESSION_SECURE_COOKIE"

	// Session / Cookie names
	CookieSessionName = "t_session"
)

// Routes used by the backend router
const (
	RouteAPIPrefix       = "/api"
	RouteAuthLogin       = "/auth/login"
	RouteVersion         = "/version"
	RouteVillages        = "/villages"
	RouteVillageByID     = "/villages/:villageID"
	RouteVillageDispatch = "/villages/:villageID/dispatch"
	RouteOperations      = "/operations"
	RouteOperationCancel = "/operations/:operationID/cancel"
	RouteProcessDue      = "/process-due"
	RouteReports         = "/reports"
	RouteReportByID      = "/reports/:reportID"
)

// Common JSON response keys
const (
	JSONKeyError = "error"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest     = "Invalid request"
	ErrAuthRequired       = "Authentication required"
	ErrInvalidSession     = "Invalid session"
	ErrFailedCreateUser   = "Failed to create user"
	ErrFailedCreateToken  = "Failed to create session token"
	ErrFailedFetchVillage = "Failed to fetch village"
	ErrFailedFetchOps     = "Failed to fetch operations"
	ErrFailedFetchReports = "Failed to fetch reports"
	ErrFailedDispatch     = "Failed to dispatch operation"
	ErrFailedCancel       = "Failed to cancel operation"
	ErrFailedProcessDue   = "Failed to process due operations"

	ErrNameRequired  = "name is required"
	ErrEmailRequired = "email is required"
)

// Logging field names
const (
	LogFieldOperationID = "operation_id"
	LogFieldVillageID   = "village_id"
	LogFieldUserID      = "user_id"
	LogFieldKind        = "kind"
	LogFieldAddr        = "addr"
)
