package server

// Route path constants
const (
	// Credential routes
	RouteLogin   = "/login"
	RouteRefresh = "/refresh"
	RouteLogout  = "/logout"

	// Tenant routes
	RouteRecords              = "/api/records"
	RouteRecord               = "/api/records/{id}"
	RouteOrganization         = "/api/organization"
	RouteOrganizationSeats    = "/api/organization/seats"
	RouteOrganizationFeatures = "/api/organization/features"
	RouteUsers                = "/api/users"
	RouteUser                 = "/api/users/{id}"
	RouteOwnPassword          = "/api/users/me/password"

	// Platform operator routes
	RoutePlatformRecords          = "/api/platform/records"
	RoutePlatformUserOrganization = "/api/platform/users/{id}/organization"
	RoutePlatformOrganizations    = "/api/platform/organizations"

	// Operations
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)
