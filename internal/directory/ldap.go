package directory

import (
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/unicode"

	"github.com/GoAD-Admin/GoAD-Admin/internal/config"
)

// AD attribute names used by the gateway.
const (
	attrSAMAccountName = "sAMAccountName"
	attrDisplayName    = "displayName"
	attrMail           = "mail"
	attrUAC            = "userAccountControl"
	attrPwdLastSet     = "pwdLastSet"
	attrLockoutTime    = "lockoutTime"
	attrUnicodePwd     = "unicodePwd"
	attrPwdExpiry      = "msDS-UserPasswordExpiryTimeComputed"
)

const (
	// matchingRuleInChain is the AD extensible match rule resolving nested
	// group membership server-side (LDAP_MATCHING_RULE_IN_CHAIN).
	matchingRuleInChain = "1.2.840.113556.1.4.1941"

	// uacDontExpirePassword is the userAccountControl DONT_EXPIRE_PASSWORD flag.
	uacDontExpirePassword = 0x10000

	// neverExpiresFiletime is the FILETIME sentinel AD reports for passwords
	// that never expire.
	neverExpiresFiletime = int64(0x7FFFFFFFFFFFFFFF)

	// defaultTimeoutSeconds bounds directory operations when no timeout is configured.
	defaultTimeoutSeconds = 10

	// defaultLDAPPort is used when no port is configured.
	defaultLDAPPort = 389
)

var userAttributes = []string{
	attrSAMAccountName,
	attrDisplayName,
	attrMail,
	attrUAC,
	attrPwdLastSet,
	attrPwdExpiry,
	"dn",
}

// LDAPGateway implements Gateway against Active Directory over LDAP.
// Connections are acquired and released per operation, never pooled.
type LDAPGateway struct {
	cfg config.AD
}

// NewLDAPGateway creates a gateway for the given AD settings.
func NewLDAPGateway(cfg config.AD) *LDAPGateway {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeoutSeconds
	}

	if cfg.Port == 0 {
		cfg.Port = defaultLDAPPort
	}

	if cfg.Host == "" {
		cfg.Host = cfg.Domain
	}

	return &LDAPGateway{cfg: cfg}
}

// connect establishes a connection to the directory server.
func (g *LDAPGateway) connect() (*ldap.Conn, error) {
	if g.cfg.Domain == "" {
		return nil, ErrMisconfigured
	}

	hostPort := net.JoinHostPort(g.cfg.Host, strconv.Itoa(g.cfg.Port))

	var ldapURL string
	if g.cfg.UseSSL {
		ldapURL = "ldaps://" + hostPort
	} else {
		ldapURL = "ldap://" + hostPort
	}

	var tlsConfig *tls.Config
	if g.cfg.UseSSL || g.cfg.UseTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: g.cfg.SkipVerify, //nolint:gosec // skipping verifying tls is ok
			ServerName:         g.cfg.Host,
		}
	}

	conn, err := ldap.DialURL(ldapURL, ldap.DialWithTLSConfig(tlsConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to directory server: %w", err)
	}

	// Upgrade to TLS if requested (for non-SSL connections)
	if !g.cfg.UseSSL && g.cfg.UseTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			closeConn(conn)

			return nil, fmt.Errorf("failed to start TLS: %w", errStartTLS)
		}
	}

	conn.SetTimeout(time.Duration(g.cfg.Timeout) * time.Second)

	return conn, nil
}

// connectService connects and binds with the privileged service account.
func (g *LDAPGateway) connectService() (*ldap.Conn, error) {
	if g.cfg.ServiceUser == "" || g.cfg.ServicePassword == "" {
		return nil, ErrMisconfigured
	}

	conn, err := g.connect()
	if err != nil {
		return nil, err
	}

	if errBind := conn.Bind(g.bindName(g.cfg.ServiceUser), g.cfg.ServicePassword); errBind != nil {
		closeConn(conn)

		return nil, fmt.Errorf("failed to bind with service account: %w", errBind)
	}

	return conn, nil
}

// bindName turns a bare sAMAccountName into a bindable identity.
// Names already carrying a domain part are used as-is.
func (g *LDAPGateway) bindName(username string) string {
	if strings.Contains(username, "@") || strings.Contains(username, `\`) {
		return username
	}

	return username + "@" + g.cfg.Domain
}

func closeConn(conn *ldap.Conn) {
	if errClose := conn.Close(); errClose != nil {
		log.Warn().Err(errClose).Msg("failed to close directory connection")
	}
}

// ValidateCredentials binds as the user itself, without the service account.
// An unreachable directory or a failed bind both surface as an error to the
// caller, which must treat it as "not valid".
func (g *LDAPGateway) ValidateCredentials(username, password string) (bool, error) {
	// empty password would be an unauthenticated bind, never accept it
	if username == "" || password == "" {
		return false, nil
	}

	conn, err := g.connect()
	if err != nil {
		return false, err
	}

	defer closeConn(conn)

	if errBind := conn.Bind(g.bindName(username), password); errBind != nil {
		if ldap.IsErrorWithCode(errBind, ldap.LDAPResultInvalidCredentials) {
			return false, nil
		}

		return false, fmt.Errorf("credential validation failed: %w", errBind)
	}

	return true, nil
}

// FindUser locates a user principal by sAMAccountName.
func (g *LDAPGateway) FindUser(samAccountName string) (*User, error) {
	conn, err := g.connectService()
	if err != nil {
		return nil, err
	}

	defer closeConn(conn)

	entry, err := g.searchUserEntry(conn, samAccountName)
	if err != nil {
		return nil, err
	}

	user := userFromEntry(entry)

	return &user, nil
}

// FindGroup locates a group principal by sAMAccountName.
func (g *LDAPGateway) FindGroup(name string) (*Group, error) {
	conn, err := g.connectService()
	if err != nil {
		return nil, err
	}

	defer closeConn(conn)

	return g.searchGroup(conn, name)
}

// TransitiveMembers enumerates user principals of a group, nested membership
// included. Nested groups are resolved server-side via the in-chain matching
// rule, so a single search returns every user.
func (g *LDAPGateway) TransitiveMembers(groupName string) ([]User, error) {
	conn, err := g.connectService()
	if err != nil {
		return nil, err
	}

	defer closeConn(conn)

	group, err := g.searchGroup(conn, groupName)
	if err != nil {
		return nil, err
	}

	filter := fmt.Sprintf("(&(objectCategory=person)(objectClass=user)(memberOf:%s:=%s))",
		matchingRuleInChain, ldap.EscapeFilter(group.DN))

	result, err := conn.Search(g.newSearchRequest(filter, userAttributes))
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate members of %q: %w", groupName, err)
	}

	users := make([]User, 0, len(result.Entries))
	for _, entry := range result.Entries {
		users = append(users, userFromEntry(entry))
	}

	return users, nil
}

// AuthorizationGroups returns the names of all groups the user is a
// transitive member of.
func (g *LDAPGateway) AuthorizationGroups(samAccountName string) ([]string, error) {
	conn, err := g.connectService()
	if err != nil {
		return nil, err
	}

	defer closeConn(conn)

	entry, err := g.searchUserEntry(conn, samAccountName)
	if err != nil {
		return nil, err
	}

	filter := fmt.Sprintf("(&(objectCategory=group)(member:%s:=%s))",
		matchingRuleInChain, ldap.EscapeFilter(entry.DN))

	result, err := conn.Search(g.newSearchRequest(filter, []string{attrSAMAccountName, "dn"}))
	if err != nil {
		return nil, fmt.Errorf("failed to search authorization groups: %w", err)
	}

	groups := make([]string, 0, len(result.Entries))
	for _, groupEntry := range result.Entries {
		if name := groupEntry.GetAttributeValue(attrSAMAccountName); name != "" {
			groups = append(groups, name)
		}
	}

	return groups, nil
}

// IsTransitiveMember reports whether the user is a direct or nested member of
// the group.
func (g *LDAPGateway) IsTransitiveMember(samAccountName, groupName string) (bool, error) {
	conn, err := g.connectService()
	if err != nil {
		return false, err
	}

	defer closeConn(conn)

	group, err := g.searchGroup(conn, groupName)
	if err != nil {
		return false, err
	}

	filter := fmt.Sprintf("(&(objectCategory=person)(%s=%s)(memberOf:%s:=%s))",
		attrSAMAccountName, ldap.EscapeFilter(samAccountName),
		matchingRuleInChain, ldap.EscapeFilter(group.DN))

	result, err := conn.Search(g.newSearchRequest(filter, []string{"dn"}))
	if err != nil {
		return false, fmt.Errorf("failed to check group membership: %w", err)
	}

	return len(result.Entries) > 0, nil
}

// ListGroups returns the names of all groups in the directory.
func (g *LDAPGateway) ListGroups() ([]string, error) {
	conn, err := g.connectService()
	if err != nil {
		return nil, err
	}

	defer closeConn(conn)

	result, err := conn.Search(g.newSearchRequest("(objectCategory=group)", []string{attrSAMAccountName}))
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	names := make([]string, 0, len(result.Entries))
	for _, entry := range result.Entries {
		if name := entry.GetAttributeValue(attrSAMAccountName); name != "" {
			names = append(names, name)
		}
	}

	return names, nil
}

// MutateUser locates a user principal and returns a staging handle.
func (g *LDAPGateway) MutateUser(samAccountName string) (Mutation, error) {
	conn, err := g.connectService()
	if err != nil {
		return nil, err
	}

	defer closeConn(conn)

	entry, err := g.searchUserEntry(conn, samAccountName)
	if err != nil {
		return nil, err
	}

	uac, _ := strconv.Atoi(entry.GetAttributeValue(attrUAC))

	return &ldapMutation{
		gateway: g,
		dn:      entry.DN,
		uac:     uac,
	}, nil
}

// newSearchRequest builds a subtree search below the configured base DN.
func (g *LDAPGateway) newSearchRequest(filter string, attributes []string) *ldap.SearchRequest {
	return ldap.NewSearchRequest(
		g.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, // Size limit
		g.cfg.Timeout,
		false,
		filter,
		attributes,
		nil,
	)
}

// searchUserEntry searches for the given sAMAccountName and returns a single entry.
func (g *LDAPGateway) searchUserEntry(conn *ldap.Conn, samAccountName string) (*ldap.Entry, error) {
	filter := fmt.Sprintf("(&(objectCategory=person)(objectClass=user)(%s=%s))",
		attrSAMAccountName, ldap.EscapeFilter(samAccountName))

	result, err := conn.Search(g.newSearchRequest(filter, userAttributes))
	if err != nil {
		return nil, fmt.Errorf("failed to search for user: %w", err)
	}

	switch len(result.Entries) {
	case 0:
		return nil, ErrUserNotFound
	case 1:
		return result.Entries[0], nil
	default:
		return nil, ErrMultipleEntriesFound
	}
}

// searchGroup searches for the given group name and returns a single group.
func (g *LDAPGateway) searchGroup(conn *ldap.Conn, name string) (*Group, error) {
	filter := fmt.Sprintf("(&(objectCategory=group)(%s=%s))",
		attrSAMAccountName, ldap.EscapeFilter(name))

	result, err := conn.Search(g.newSearchRequest(filter, []string{attrSAMAccountName, "dn"}))
	if err != nil {
		return nil, fmt.Errorf("failed to search for group: %w", err)
	}

	switch len(result.Entries) {
	case 0:
		return nil, ErrGroupNotFound
	case 1:
		return &Group{
			SamAccountName: result.Entries[0].GetAttributeValue(attrSAMAccountName),
			DN:             result.Entries[0].DN,
		}, nil
	default:
		return nil, ErrMultipleEntriesFound
	}
}

// userFromEntry maps an LDAP entry to a User projection.
// A broken expiry attribute only nils the expiry of this one user, it never
// fails the mapping.
func userFromEntry(entry *ldap.Entry) User {
	uac, _ := strconv.Atoi(entry.GetAttributeValue(attrUAC))
	neverExpires := uac&uacDontExpirePassword != 0

	pwdLastSet := entry.GetAttributeValue(attrPwdLastSet)

	user := User{
		SamAccountName:         entry.GetAttributeValue(attrSAMAccountName),
		DN:                     entry.DN,
		DisplayName:            entry.GetAttributeValue(attrDisplayName),
		Email:                  entry.GetAttributeValue(attrMail),
		PasswordNeverExpires:   neverExpires,
		PasswordChangeRequired: pwdLastSet == "" || pwdLastSet == "0",
	}

	if !neverExpires {
		user.PasswordExpiresAt = parseExpiry(entry.GetAttributeValue(attrPwdExpiry))
	}

	return user
}

// parseExpiry converts the computed expiry FILETIME to a timestamp.
// Zero, the never-expires sentinel and unparsable values map to nil.
func parseExpiry(raw string) *time.Time {
	if raw == "" {
		return nil
	}

	filetime, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Warn().Str("value", raw).Msg("could not parse password expiry attribute")
		return nil
	}

	if filetime <= 0 || filetime == neverExpiresFiletime {
		return nil
	}

	t := filetimeToTime(filetime)

	return &t
}

// filetimeToTime converts a Windows FILETIME (100ns intervals since
// 1601-01-01 UTC) to a time.Time.
func filetimeToTime(filetime int64) time.Time {
	const intervalsPerSecond = int64(10_000_000)

	secs := filetime / intervalsPerSecond
	nanos := (filetime % intervalsPerSecond) * 100

	return time.Date(1601, time.January, 1, 0, 0, 0, 0, time.UTC).
		Add(time.Duration(secs)*time.Second + time.Duration(nanos)*time.Nanosecond)
}

// ldapMutation stages changes for one user and commits them in a single
// modify request. The staging order is preserved in the request.
type ldapMutation struct {
	gateway *LDAPGateway
	dn      string
	uac     int

	changes []ldap.Change
}

// SetPassword stages a password reset. AD requires the new password as a
// quoted UTF-16LE encoded unicodePwd value over a TLS protected connection.
func (m *ldapMutation) SetPassword(newPassword string) error {
	encoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()

	// the value must be the literal password surrounded by double quotes
	encoded, err := encoder.String(`"` + newPassword + `"`)
	if err != nil {
		return fmt.Errorf("failed to encode password: %w", err)
	}

	m.replace(attrUnicodePwd, encoded)

	return nil
}

// SetPasswordNeverExpires stages the DONT_EXPIRE_PASSWORD flag on top of the
// account control value read when the mutation was created.
func (m *ldapMutation) SetPasswordNeverExpires(never bool) {
	uac := m.uac
	if never {
		uac |= uacDontExpirePassword
	} else {
		uac &^= uacDontExpirePassword
	}

	m.replace(attrUAC, strconv.Itoa(uac))
}

// ExpirePasswordNow stages a forced password change at next logon.
func (m *ldapMutation) ExpirePasswordNow() {
	m.replace(attrPwdLastSet, "0")
}

// Unlock stages an account unlock. Writing a zero lockoutTime is a no-op on
// accounts that are not locked.
func (m *ldapMutation) Unlock() {
	m.replace(attrLockoutTime, "0")
}

// Save commits all staged changes in one modify request.
func (m *ldapMutation) Save() error {
	if len(m.changes) == 0 {
		return nil
	}

	conn, err := m.gateway.connectService()
	if err != nil {
		return err
	}

	defer closeConn(conn)

	req := &ldap.ModifyRequest{DN: m.dn, Changes: m.changes}

	if errModify := conn.Modify(req); errModify != nil {
		return fmt.Errorf("failed to save changes for %q: %w", m.dn, errModify)
	}

	return nil
}

func (m *ldapMutation) replace(attribute, value string) {
	m.changes = append(m.changes, ldap.Change{
		Operation: ldap.ReplaceAttribute,
		Modification: ldap.PartialAttribute{
			Type: attribute,
			Vals: []string{value},
		},
	})
}
