package management

import (
	"errors"
	"strings"

	"github.com/GoAD-Admin/GoAD-Admin/internal/directory"
)

// errDirectoryDown simulates an unreachable domain controller.
var errDirectoryDown = errors.New("directory unreachable")

// fakeGateway is an in-memory directory.Gateway for tests.
type fakeGateway struct {
	users  map[string]directory.User // keyed by lowercase sAMAccountName
	groups map[string][]string       // group name -> member usernames
	// memberships maps a username to the groups it is a transitive member of.
	memberships map[string][]string

	down       bool // every call fails
	failGroups map[string]bool

	// failure injection for mutations handed out by MutateUser
	failSetPassword bool
	failSave        bool

	mutations []*fakeMutation
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		users:       make(map[string]directory.User),
		groups:      make(map[string][]string),
		memberships: make(map[string][]string),
		failGroups:  make(map[string]bool),
	}
}

func (f *fakeGateway) addUser(u directory.User) {
	f.users[strings.ToLower(u.SamAccountName)] = u
}

func (f *fakeGateway) ValidateCredentials(username, password string) (bool, error) {
	if f.down {
		return false, errDirectoryDown
	}

	_, ok := f.users[strings.ToLower(username)]

	return ok && password != "", nil
}

func (f *fakeGateway) FindUser(samAccountName string) (*directory.User, error) {
	if f.down {
		return nil, errDirectoryDown
	}

	user, ok := f.users[strings.ToLower(samAccountName)]
	if !ok {
		return nil, directory.ErrUserNotFound
	}

	return &user, nil
}

func (f *fakeGateway) FindGroup(name string) (*directory.Group, error) {
	if f.down {
		return nil, errDirectoryDown
	}

	for groupName := range f.groups {
		if strings.EqualFold(groupName, name) {
			return &directory.Group{SamAccountName: groupName}, nil
		}
	}

	return nil, directory.ErrGroupNotFound
}

func (f *fakeGateway) TransitiveMembers(groupName string) ([]directory.User, error) {
	if f.down {
		return nil, errDirectoryDown
	}

	if f.failGroups[groupName] {
		return nil, errDirectoryDown
	}

	for name, members := range f.groups {
		if !strings.EqualFold(name, groupName) {
			continue
		}

		users := make([]directory.User, 0, len(members))
		for _, m := range members {
			if user, ok := f.users[strings.ToLower(m)]; ok {
				users = append(users, user)
			}
		}

		return users, nil
	}

	return nil, directory.ErrGroupNotFound
}

func (f *fakeGateway) AuthorizationGroups(samAccountName string) ([]string, error) {
	if f.down {
		return nil, errDirectoryDown
	}

	if _, ok := f.users[strings.ToLower(samAccountName)]; !ok {
		return nil, directory.ErrUserNotFound
	}

	return f.memberships[strings.ToLower(samAccountName)], nil
}

func (f *fakeGateway) IsTransitiveMember(samAccountName, groupName string) (bool, error) {
	if f.down {
		return false, errDirectoryDown
	}

	for _, g := range f.memberships[strings.ToLower(samAccountName)] {
		if strings.EqualFold(g, groupName) {
			return true, nil
		}
	}

	return false, nil
}

func (f *fakeGateway) ListGroups() ([]string, error) {
	if f.down {
		return nil, errDirectoryDown
	}

	names := make([]string, 0, len(f.groups))
	for name := range f.groups {
		names = append(names, name)
	}

	return names, nil
}

func (f *fakeGateway) MutateUser(samAccountName string) (directory.Mutation, error) {
	if f.down {
		return nil, errDirectoryDown
	}

	user, ok := f.users[strings.ToLower(samAccountName)]
	if !ok {
		return nil, directory.ErrUserNotFound
	}

	m := &fakeMutation{
		gateway:         f,
		user:            user.SamAccountName,
		failSetPassword: f.failSetPassword,
		failSave:        f.failSave,
	}
	f.mutations = append(f.mutations, m)

	return m, nil
}

// fakeMutation records the staged steps and applies them to the fake user
// state on Save.
type fakeMutation struct {
	gateway *fakeGateway
	user    string

	staged []string

	password     string
	neverExpires *bool
	expired      bool
	unlocked     bool

	failSetPassword bool
	failSave        bool
	saved           bool
}

func (m *fakeMutation) SetPassword(newPassword string) error {
	if m.failSetPassword {
		return errors.New("staging failed")
	}

	m.staged = append(m.staged, "password")
	m.password = newPassword

	return nil
}

func (m *fakeMutation) SetPasswordNeverExpires(never bool) {
	m.staged = append(m.staged, "neverExpires")
	m.neverExpires = &never
}

func (m *fakeMutation) ExpirePasswordNow() {
	m.staged = append(m.staged, "expireNow")
	m.expired = true
}

func (m *fakeMutation) Unlock() {
	m.staged = append(m.staged, "unlock")
	m.unlocked = true
}

func (m *fakeMutation) Save() error {
	if m.failSave {
		return errDirectoryDown
	}

	m.saved = true

	// commit staged state to the fake directory
	key := strings.ToLower(m.user)
	user := m.gateway.users[key]

	if m.neverExpires != nil {
		user.PasswordNeverExpires = *m.neverExpires
		if *m.neverExpires {
			user.PasswordExpiresAt = nil
		}
	}

	if m.expired {
		user.PasswordChangeRequired = true
	}

	m.gateway.users[key] = user

	return nil
}
