// Package session is the client-side view of an authenticated session: a
// small state container changed only through named mutations, durable token
// storage, and the HTTP actions that drive both.
package session

import (
	"github.com/rs/zerolog"

	"github.com/stylelab/platform/internal/core/domain"
)

// AccessTokenKey is the storage key holding the bearer token.
const AccessTokenKey = "access_token"

// Mutation names.
const (
	MutationSetUser            = "SET_USER"
	MutationSetAccessToken     = "SET_ACCESS_TOKEN"
	MutationSetUserErrorLogout = "SET_USER_ERROR_OR_LOGOUT"
)

// State is the session as seen by the client.
type State struct {
	User            domain.PublicUser
	IsAuthenticated bool
	LoadingUser     bool
	AccessToken     string
	Error           *domain.APIError
}

// InitialState is the state before the first fetch: nobody is signed in and
// the user is still loading.
func InitialState() State {
	return State{LoadingUser: true}
}

// Mutation is a named state transition. Only this package defines them.
type Mutation interface {
	Name() string
	apply(s *State, storage TokenStorage, log zerolog.Logger)
}

type setUser struct {
	user domain.PublicUser
}

// SetUser installs an authenticated user and clears any previous error.
func SetUser(user domain.PublicUser) Mutation {
	return setUser{user: user}
}

func (setUser) Name() string { return MutationSetUser }

func (m setUser) apply(s *State, _ TokenStorage, _ zerolog.Logger) {
	s.User = m.user
	s.IsAuthenticated = true
	s.LoadingUser = false
	s.Error = nil
}

type setAccessToken struct {
	token string
}

// SetAccessToken persists a non-empty token and mirrors it into the state.
// An empty token removes it from both.
func SetAccessToken(token string) Mutation {
	return setAccessToken{token: token}
}

func (setAccessToken) Name() string { return MutationSetAccessToken }

func (m setAccessToken) apply(s *State, storage TokenStorage, log zerolog.Logger) {
	if m.token == "" {
		if err := storage.Remove(AccessTokenKey); err != nil {
			log.Warn().Err(err).Msg("failed to remove stored access token")
		}
		s.AccessToken = ""
		return
	}

	if err := storage.Set(AccessTokenKey, m.token); err != nil {
		log.Warn().Err(err).Msg("failed to persist access token")
	}
	s.AccessToken = m.token

	if stored, ok, err := storage.Get(AccessTokenKey); err != nil || !ok || stored != s.AccessToken {
		log.Warn().Err(err).Bool("stored", ok).Msg("stored access token diverges from session state")
	}
}

type setUserErrorOrLogout struct {
	err *domain.APIError
}

// SetUserErrorOrLogout drops the user and records err. A nil err is a plain
// logout.
func SetUserErrorOrLogout(err *domain.APIError) Mutation {
	return setUserErrorOrLogout{err: err}
}

func (setUserErrorOrLogout) Name() string { return MutationSetUserErrorLogout }

func (m setUserErrorOrLogout) apply(s *State, _ TokenStorage, _ zerolog.Logger) {
	s.Error = m.err
	s.User = domain.PublicUser{}
	s.IsAuthenticated = false
	s.LoadingUser = false
	s.AccessToken = ""
}
