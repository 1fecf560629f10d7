package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"classquiz/internal/users"
)

type userRecord struct {
	Password string `json:"password"`
	Role     string `json:"role"`
}

type legacyUserRecord struct {
	Password string  `json:"password"`
	Role     *string `json:"role"`
}

// UserStore is the users.json backend. Every read-modify-write cycle holds
// mu, so concurrent registrations in one process cannot drop each other.
type UserStore struct {
	mu   sync.Mutex
	path string

	// unreadable holds entries from the last load that could not be decoded.
	// They are written back verbatim so a save never drops an account.
	unreadable map[string]json.RawMessage
}

func NewUserStore(path string) *UserStore {
	return &UserStore{path: path}
}

// Load returns every stored user, upgrading legacy entries on the way: a
// bare string value becomes the password hash of a student, and a record
// without a role becomes a student. Upgrades are written back before Load
// returns.
func (s *UserStore) Load(ctx context.Context) (map[string]users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Save overwrites the whole file with all.
func (s *UserStore) Save(ctx context.Context, all map[string]users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, all)
}

func (s *UserStore) CreateUser(ctx context.Context, user users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return err
	}
	if _, exists := all[user.Username]; exists {
		return users.ErrUsernameTaken
	}
	if _, exists := s.unreadable[user.Username]; exists {
		return users.ErrUsernameTaken
	}
	all[user.Username] = user
	return s.save(ctx, all)
}

func (s *UserStore) GetUser(ctx context.Context, username string) (users.User, error) {
	all, err := s.Load(ctx)
	if err != nil {
		return users.User{}, err
	}
	user, ok := all[username]
	if !ok {
		return users.User{}, users.ErrUserNotFound
	}
	return user, nil
}

func (s *UserStore) load(ctx context.Context) (map[string]users.User, error) {
	raw := make(map[string]json.RawMessage)
	if _, err := readJSON(s.path, &raw); err != nil {
		return nil, err
	}

	all := make(map[string]users.User, len(raw))
	s.unreadable = make(map[string]json.RawMessage)
	upgraded := false
	for username, value := range raw {
		user, changed, ok := decodeUser(username, value)
		if !ok {
			glog.Warningf("keeping unreadable user entry %q in %s as is", username, s.path)
			s.unreadable[username] = value
			continue
		}
		all[username] = user
		upgraded = upgraded || changed
	}

	if upgraded {
		glog.Infof("upgrading legacy user entries in %s", s.path)
		if err := s.save(ctx, all); err != nil {
			return nil, err
		}
	}
	return all, nil
}

func (s *UserStore) save(_ context.Context, all map[string]users.User) error {
	records := make(map[string]json.RawMessage, len(all)+len(s.unreadable))
	for username, value := range s.unreadable {
		if _, replaced := all[username]; !replaced {
			records[username] = value
		}
	}
	for username, user := range all {
		encoded, err := json.Marshal(userRecord{
			Password: user.PasswordHash,
			Role:     string(user.Role),
		})
		if err != nil {
			return errors.Wrapf(err, "encode user %s", username)
		}
		records[username] = encoded
	}
	return writeJSON(s.path, records)
}

func decodeUser(username string, value json.RawMessage) (users.User, bool, bool) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 {
		return users.User{}, false, false
	}

	switch trimmed[0] {
	case '"':
		var hash string
		if err := json.Unmarshal(trimmed, &hash); err != nil {
			return users.User{}, false, false
		}
		return users.User{Username: username, PasswordHash: hash, Role: users.RoleStudent}, true, true

	case '{':
		var record legacyUserRecord
		if err := json.Unmarshal(trimmed, &record); err != nil {
			return users.User{}, false, false
		}
		user := users.User{Username: username, PasswordHash: record.Password, Role: users.RoleStudent}
		if record.Role == nil {
			return user, true, true
		}
		user.Role = users.Role(*record.Role)
		return user, false, true
	}

	return users.User{}, false, false
}
