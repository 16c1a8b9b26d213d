package handler

const (
	// RootPath is the root path of the route group.
	RootPath = "/"

	// RouterRootPath is the root path within a route group.
	RouterRootPath = "/"

	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"

	// SessionLocalsKey is the fiber.Locals key holding the session data of
	// the authenticated administrator.
	SessionLocalsKey = "sessionData"

	// ErrNilACDFatalLogMsg is used if app or cfg or a service pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or service is nil"
)
