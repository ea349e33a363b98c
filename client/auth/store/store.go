package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gravitational/trace"
	"github.com/kottesh/amuhacks/schema"
	"golang.org/x/oauth2"
)

// Persisted keys.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// Keys lists every persisted key.
var Keys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}

// Credentials is the persisted state of a session.
type Credentials struct {
	Token *oauth2.Token
	User  *schema.User
}

// AccessToken returns the access token or an empty string.
func (c *Credentials) AccessToken() string {
	if c == nil || c.Token == nil {
		return ""
	}
	return c.Token.AccessToken
}

// RefreshToken returns the refresh token or an empty string.
func (c *Credentials) RefreshToken() string {
	if c == nil || c.Token == nil {
		return ""
	}
	return c.Token.RefreshToken
}

// IsEmpty reports whether nothing is stored.
func (c *Credentials) IsEmpty() bool {
	return c.AccessToken() == "" && c.RefreshToken() == "" && (c == nil || c.User == nil)
}

// Store is a pluggable persistence layer for session credentials.
// Get returns empty, non-nil credentials when nothing was stored.
type Store interface {
	Get(ctx context.Context) (*Credentials, error)
	Put(ctx context.Context, creds *Credentials) error
	Clear(ctx context.Context) error
}

func encode(creds *Credentials) (map[string]string, error) {
	values := map[string]string{}
	if v := creds.AccessToken(); v != "" {
		values[KeyAccessToken] = v
	}
	if v := creds.RefreshToken(); v != "" {
		values[KeyRefreshToken] = v
	}
	if creds != nil && creds.User != nil {
		data, err := json.Marshal(creds.User)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		values[KeyUser] = string(data)
	}
	return values, nil
}

func decode(values map[string]string) (*Credentials, error) {
	creds := &Credentials{}
	access, refresh := values[KeyAccessToken], values[KeyRefreshToken]
	if access != "" || refresh != "" {
		creds.Token = &oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"}
	}
	if raw := values[KeyUser]; raw != "" && raw != "null" {
		user := &schema.User{}
		if err := json.Unmarshal([]byte(raw), user); err != nil {
			return nil, trace.Wrap(err, "malformed %v entry", KeyUser)
		}
		creds.User = user
	}
	return creds, nil
}

type memoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func (m *memoryStore) Get(_ context.Context) (*Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return decode(m.values)
}

func (m *memoryStore) Put(_ context.Context, creds *Credentials) error {
	values, err := encode(creds)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = values
	return nil
}

func (m *memoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = map[string]string{}
	return nil
}

// NewMemoryStore creates a process local store, optionally seeded with creds.
func NewMemoryStore(seed ...*Credentials) Store {
	ret := &memoryStore{values: map[string]string{}}
	if len(seed) > 0 {
		ret.values, _ = encode(seed[0])
	}
	return ret
}
