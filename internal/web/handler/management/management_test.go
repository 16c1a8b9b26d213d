package management

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage"
	"gorm.io/gorm"

	"github.com/GoAD-Admin/GoAD-Admin/internal/auth"
	"github.com/GoAD-Admin/GoAD-Admin/internal/config"
	"github.com/GoAD-Admin/GoAD-Admin/internal/db/controller/rule"
	"github.com/GoAD-Admin/GoAD-Admin/internal/db/models"
	"github.com/GoAD-Admin/GoAD-Admin/internal/directory"
	mgmt "github.com/GoAD-Admin/GoAD-Admin/internal/management"
	"github.com/GoAD-Admin/GoAD-Admin/internal/web/handler"
	authmiddleware "github.com/GoAD-Admin/GoAD-Admin/internal/web/middleware/auth"
	websess "github.com/GoAD-Admin/GoAD-Admin/internal/web/session"
)

// fakeGateway serves directory lookups from fixed maps and records password
// resets.
type fakeGateway struct {
	users       map[string]directory.User
	groups      map[string][]string
	memberships map[string][]string

	resets []string // usernames with a saved reset
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		users:       make(map[string]directory.User),
		groups:      make(map[string][]string),
		memberships: make(map[string][]string),
	}
}

func (f *fakeGateway) ValidateCredentials(username, password string) (bool, error) {
	_, ok := f.users[strings.ToLower(username)]
	return ok && password != "", nil
}

func (f *fakeGateway) FindUser(samAccountName string) (*directory.User, error) {
	user, ok := f.users[strings.ToLower(samAccountName)]
	if !ok {
		return nil, directory.ErrUserNotFound
	}

	return &user, nil
}

func (f *fakeGateway) FindGroup(name string) (*directory.Group, error) {
	if _, ok := f.groups[name]; !ok {
		return nil, directory.ErrGroupNotFound
	}

	return &directory.Group{SamAccountName: name}, nil
}

func (f *fakeGateway) TransitiveMembers(groupName string) ([]directory.User, error) {
	members, ok := f.groups[groupName]
	if !ok {
		return nil, directory.ErrGroupNotFound
	}

	users := make([]directory.User, 0, len(members))
	for _, m := range members {
		if user, exists := f.users[strings.ToLower(m)]; exists {
			users = append(users, user)
		}
	}

	return users, nil
}

func (f *fakeGateway) AuthorizationGroups(samAccountName string) ([]string, error) {
	if _, ok := f.users[strings.ToLower(samAccountName)]; !ok {
		return nil, directory.ErrUserNotFound
	}

	return f.memberships[strings.ToLower(samAccountName)], nil
}

func (f *fakeGateway) IsTransitiveMember(samAccountName, groupName string) (bool, error) {
	for _, g := range f.memberships[strings.ToLower(samAccountName)] {
		if strings.EqualFold(g, groupName) {
			return true, nil
		}
	}

	return false, nil
}

func (f *fakeGateway) ListGroups() ([]string, error) {
	names := make([]string, 0, len(f.groups))
	for name := range f.groups {
		names = append(names, name)
	}

	return names, nil
}

func (f *fakeGateway) MutateUser(samAccountName string) (directory.Mutation, error) {
	user, ok := f.users[strings.ToLower(samAccountName)]
	if !ok {
		return nil, directory.ErrUserNotFound
	}

	return &fakeMutation{gateway: f, user: user.SamAccountName}, nil
}

type fakeMutation struct {
	gateway *fakeGateway
	user    string
}

func (m *fakeMutation) SetPassword(string) error     { return nil }
func (m *fakeMutation) SetPasswordNeverExpires(bool) {}
func (m *fakeMutation) ExpirePasswordNow()           {}
func (m *fakeMutation) Unlock()                      {}

func (m *fakeMutation) Save() error {
	m.gateway.resets = append(m.gateway.resets, m.user)
	return nil
}

// testStorage is a minimal in-memory implementation of storage.Storage for tests.
type testStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ storage.Storage = (*testStorage)(nil)

func (s *testStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.data[key]
	out := make([]byte, len(v))
	copy(out, v)

	return out, nil
}

func (s *testStorage) Set(key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(val))
	copy(buf, val)
	s.data[key] = buf

	return nil
}

func (s *testStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)

	return nil
}

func (s *testStorage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string][]byte)

	return nil
}

func (s *testStorage) Close() error { return nil }

// newTestApp wires the session middleware, the management handler and a
// logged-in delegated admin session. It returns the app and the session
// cookie of the admin.
func newTestApp(t *testing.T, gw *fakeGateway) (*fiber.App, string) {
	t.Helper()

	websess.Init(&testStorage{data: make(map[string][]byte)})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	if err = db.AutoMigrate(&models.DelegationRule{}); err != nil {
		t.Fatalf("failed to migrate rule model: %v", err)
	}

	if _, err = rule.Create(db, "Helpdesk-Tier1", []string{"Sales", "Support"}); err != nil {
		t.Fatalf("failed to seed rule: %v", err)
	}

	cfg := &config.Config{
		Webserver: config.Webserver{Session: config.Session{ExpiryTime: time.Minute}},
	}

	app := fiber.New()
	app.Use(authmiddleware.Middleware)

	var s Service
	s.Init(app, cfg, mgmt.NewService(db, gw))

	sessionID := websess.GenerateSessionID()
	sessData := &websess.Data{Username: "helpdesk", Role: auth.RoleDelegatedAdmin}

	if err = sessData.Write(sessionID, time.Minute); err != nil {
		t.Fatalf("failed to write session: %v", err)
	}

	return app, sessionID
}

// helpdeskFixture populates the fake directory with the helpdesk admin and
// the Sales/Support groups it manages, plus one unmanaged executive.
func helpdeskFixture() *fakeGateway {
	gw := newFakeGateway()

	gw.users["helpdesk"] = directory.User{SamAccountName: "helpdesk"}
	gw.memberships["helpdesk"] = []string{"Helpdesk-Tier1"}

	gw.users["bob"] = directory.User{SamAccountName: "bob", DisplayName: "Bob Example"}
	gw.users["carol"] = directory.User{SamAccountName: "carol", DisplayName: "Carol Example"}
	gw.users["ceo"] = directory.User{SamAccountName: "ceo", DisplayName: "Chief Executive"}

	gw.groups["Sales"] = []string{"bob", "carol"}
	gw.groups["Support"] = []string{"carol"}
	gw.groups["Executives"] = []string{"ceo"}

	return gw
}

func request(t *testing.T, app *fiber.App, method, target, sessionID, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: handler.SessionCookieName, Value: sessionID})
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	return resp
}

func TestGetUsers_ListsManagedUsers(t *testing.T) {
	gw := helpdeskFixture()
	app, sessionID := newTestApp(t, gw)

	resp := request(t, app, http.MethodGet, UsersPath, sessionID, "")

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}

	var body struct {
		ManagedGroups []string       `json:"managedGroups"`
		Users         []userResponse `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(body.ManagedGroups) != 2 {
		t.Fatalf("expected 2 managed groups, got %v", body.ManagedGroups)
	}

	if len(body.Users) != 2 || body.Users[0].SamAccountName != "bob" || body.Users[1].SamAccountName != "carol" {
		t.Fatalf("unexpected user listing: %+v", body.Users)
	}
}

func TestGetUsers_Unauthenticated(t *testing.T) {
	app, _ := newTestApp(t, helpdeskFixture())

	resp := request(t, app, http.MethodGet, UsersPath, "", "")

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 Unauthorized, got %d", resp.StatusCode)
	}
}

func TestGetUserStatus(t *testing.T) {
	gw := helpdeskFixture()
	app, sessionID := newTestApp(t, gw)

	resp := request(t, app, http.MethodGet, UsersPath+"/carol", sessionID, "")

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}

	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if user.DisplayName != "Carol Example" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestGetUserStatus_OutsideManagedGroups(t *testing.T) {
	gw := helpdeskFixture()
	app, sessionID := newTestApp(t, gw)

	resp := request(t, app, http.MethodGet, UsersPath+"/ceo", sessionID, "")

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 Forbidden, got %d", resp.StatusCode)
	}
}

func TestPostReset_Success(t *testing.T) {
	gw := helpdeskFixture()
	app, sessionID := newTestApp(t, gw)

	body := `{"username":"bob","newPassword":"Winter2026!","confirmPassword":"Winter2026!","requireChangeAtLogon":true}`
	resp := request(t, app, http.MethodPost, ResetPath, sessionID, body)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}

	if len(gw.resets) != 1 || gw.resets[0] != "bob" {
		t.Fatalf("expected saved reset for bob, got %v", gw.resets)
	}
}

func TestPostReset_PolicyViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "too short",
			body: `{"username":"bob","newPassword":"Ab1!","confirmPassword":"Ab1!"}`,
		},
		{
			name: "confirmation mismatch",
			body: `{"username":"bob","newPassword":"Winter2026!","confirmPassword":"Summer2026!"}`,
		},
		{
			name: "single character class",
			body: `{"username":"bob","newPassword":"aaaaaaaaaa","confirmPassword":"aaaaaaaaaa"}`,
		},
		{
			name: "missing username",
			body: `{"newPassword":"Winter2026!","confirmPassword":"Winter2026!"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gw := helpdeskFixture()
			app, sessionID := newTestApp(t, gw)

			resp := request(t, app, http.MethodPost, ResetPath, sessionID, tc.body)

			defer func() {
				_ = resp.Body.Close()
			}()

			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400 Bad Request, got %d", resp.StatusCode)
			}

			if len(gw.resets) != 0 {
				t.Fatalf("expected no reset, got %v", gw.resets)
			}
		})
	}
}

func TestPostReset_OutsideManagedGroups(t *testing.T) {
	gw := helpdeskFixture()
	app, sessionID := newTestApp(t, gw)

	body := `{"username":"ceo","newPassword":"Winter2026!","confirmPassword":"Winter2026!"}`
	resp := request(t, app, http.MethodPost, ResetPath, sessionID, body)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 Forbidden, got %d", resp.StatusCode)
	}

	if len(gw.resets) != 0 {
		t.Fatalf("expected no reset, got %v", gw.resets)
	}
}
