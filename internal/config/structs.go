package config

import (
	"time"

	"github.com/GoAD-Admin/GoAD-Admin/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode    bool // enable dev mode for development
	DB         DB
	Log        logger.Log
	Title      string
	Webserver  Webserver
	AD         AD
	Delegation Delegation
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool    // use clean path middleware to allow multi slash requests
	DisableRecover bool    // disable recover middleware
	Domain         string  // domain name for the webserver
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  // base url for the webserver
	Session        Session // session settings
}

// AD holds the Active Directory settings consumed by the directory gateway.
// ServiceUser and ServicePassword are the privileged query identity; every
// gateway operation except credential validation binds with them.
type AD struct {
	// Domain is the AD domain, e.g. "corp.example.com".
	Domain string
	// Host is the domain controller hostname or IP. Falls back to Domain if empty.
	Host string
	// Port is the LDAP port (389 for LDAP, 636 for LDAPS).
	Port int
	// UseSSL enables LDAPS on connect.
	UseSSL bool
	// UseTLS upgrades a plain connection with StartTLS.
	UseTLS bool
	// SkipVerify skips TLS certificate verification (insecure, for testing only).
	SkipVerify bool
	// BaseDN is the search base, e.g. "DC=corp,DC=example,DC=com".
	BaseDN string
	// ServiceUser is the sAMAccountName of the privileged service account.
	ServiceUser string
	// ServicePassword is the password of the service account.
	ServicePassword string
	// SuperAdminGroup is the group whose transitive members get the SuperAdmin role.
	SuperAdminGroup string
	// Timeout is the directory operation timeout in seconds.
	Timeout int
}

// DelegationMapping seeds one delegation rule on first start.
type DelegationMapping struct {
	AdminGroup    string
	ManagedGroups []string
}

// Delegation holds the initial rule seed applied when the rule table is empty.
type Delegation struct {
	AdminMappings []DelegationMapping
}
