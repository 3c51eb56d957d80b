// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/sanedge/user-management-api/internal/handler"
	"github.com/sanedge/user-management-api/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check used by
// load balancers and monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes. Unauthenticated
// operations (register, login, refresh) live under /v1/auth; logout and the
// identity endpoint require a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, rateLimit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", rateLimit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token when it is close to expiry, otherwise
	// returns the same one alongside a fresh access token.
	g.POST("/refresh", a.Refresh)

	auth := e.Group("/v1/auth", middleware.JWTAuth(jwtSecret))
	auth.POST("/logout", a.Logout)
	auth.GET("/me", a.Me)
}

// RegisterUsers registers ADMIN-scoped user management endpoints under /v1.
// All routes require a valid JWT and the ADMIN role.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, jwtSecret string) {
	g := e.Group(
		"/v1/users",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	g.GET("", u.List)
	g.GET("/:id", u.GetByID)
	g.POST("", u.Create)
	g.POST("/:id", u.Update)
	g.POST("/trashed/:id", u.Trash)
	g.POST("/restore/:id", u.Restore)
	g.DELETE("/:id", u.HardDelete)

	g.GET("/:id/roles", u.ListRoles)
	g.POST("/:id/roles/:role_id", u.AssignRole)
	g.DELETE("/:id/roles/:role_id", u.RemoveRole)
}

// RegisterRoles registers ADMIN-scoped role management endpoints under /v1.
func RegisterRoles(e *echo.Echo, r *handler.RoleHandler, jwtSecret string) {
	g := e.Group(
		"/v1/roles",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	g.GET("", r.List)
	g.GET("/:id", r.GetByID)
	g.POST("", r.Create)
	g.POST("/:id", r.Update)
	g.POST("/trashed/:id", r.Trash)
	g.POST("/restore/:id", r.Restore)
	g.DELETE("/:id", r.HardDelete)
}
