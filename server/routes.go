package server

import (
	"net/http"

	"github.com/jrsteele09/go-tenant-guard/internal/metrics"
	"github.com/jrsteele09/go-tenant-guard/permission"
)

func (s *Server) initRoutes() {
	// CREDENTIALS
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// RECORDS
	s.RegisterRouteHandler("GET "+RouteRecords, ChainMiddleware(s.ListRecordsHandler(), s.Protected(permission.RecordsRead)...))
	s.RegisterRouteHandler("POST "+RouteRecords, ChainMiddleware(s.CreateRecordHandler(), s.Protected(permission.RecordsWrite)...))
	s.RegisterRouteHandler("GET "+RouteRecord, ChainMiddleware(s.GetRecordHandler(), s.Protected(permission.RecordsRead)...))
	s.RegisterRouteHandler("PATCH "+RouteRecord, ChainMiddleware(s.UpdateRecordHandler(), s.Protected(permission.RecordsWrite)...))

	// ORGANIZATION
	s.RegisterRouteHandler("GET "+RouteOrganization, ChainMiddleware(s.OrganizationHandler(), s.Protected(permission.OrgRead)...))
	s.RegisterRouteHandler("PATCH "+RouteOrganizationSeats, ChainMiddleware(s.UpdateSeatsHandler(), s.Protected(permission.OrgSeats)...))
	s.RegisterRouteHandler("PATCH "+RouteOrganizationFeatures, ChainMiddleware(s.UpdateFeaturesHandler(), s.Protected(permission.OrgFeatures)...))

	// USERS
	s.RegisterRouteHandler("GET "+RouteUsers, ChainMiddleware(s.ListUsersHandler(), s.Protected(permission.UsersRead)...))
	s.RegisterRouteHandler("POST "+RouteUsers, ChainMiddleware(s.InviteUserHandler(), s.Protected(permission.UsersInvite)...))
	s.RegisterRouteHandler("PATCH "+RouteUser, ChainMiddleware(s.UpdateUserHandler(), s.Protected(permission.UsersManage)...))
	s.RegisterRouteHandler("POST "+RouteOwnPassword, ChainMiddleware(s.ChangePasswordHandler(), s.Protected(permission.SelfManage)...))

	// PLATFORM
	s.RegisterRouteHandler("GET "+RoutePlatformRecords, ChainMiddleware(s.ListAllRecordsHandler(), s.Protected(permission.PlatformReadAll)...))
	s.RegisterRouteHandler("PATCH "+RoutePlatformUserOrganization, ChainMiddleware(s.ReassignUserHandler(), s.Protected(permission.PlatformReassign)...))
	s.RegisterRouteHandler("POST "+RoutePlatformOrganizations, ChainMiddleware(s.ProvisionOrganizationHandler(), s.Protected(permission.PlatformProvision)...))

	// OPERATIONS
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, metrics.Handler())
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.healthCheck != nil {
			if err := s.healthCheck(r); err != nil {
				writeError(w, r, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
