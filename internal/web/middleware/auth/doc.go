// Package auth provides authentication middleware for the web application.
//
// The middleware validates the session cookie on every request and places the
// session data in fiber.Locals for handlers. Requests without a valid session
// are rejected with 401. The login, logout, health and metrics endpoints stay
// public.
//
// RequireSuperAdmin additionally gates a route on the SuperAdmin role that was
// computed at login time.
package auth
