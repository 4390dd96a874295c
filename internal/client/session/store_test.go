package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylelab/platform/internal/core/domain"
)

func TestStore_InitialState(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())
	st := s.State()

	assert.True(t, st.LoadingUser)
	assert.False(t, st.IsAuthenticated)
	assert.Empty(t, st.AccessToken)
	assert.Nil(t, st.Error)
	assert.True(t, st.User.IsZero())
}

func TestStore_SetUser(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())
	s.Commit(SetUserErrorOrLogout(domain.NewAPIError(401, "authentication required")))

	st := s.Commit(SetUser(domain.PublicUser{ID: "u1", Email: "a@example.com", Password: true}))

	assert.Equal(t, "u1", st.User.ID)
	assert.True(t, st.IsAuthenticated)
	assert.False(t, st.LoadingUser)
	assert.Nil(t, st.Error)
}

func TestStore_SetAccessToken(t *testing.T) {
	storage := NewMemoryStorage()
	s := NewStore(storage, zerolog.Nop())

	st := s.Commit(SetAccessToken("tok-1"))
	assert.Equal(t, "tok-1", st.AccessToken)
	stored, ok, _ := storage.Get(AccessTokenKey)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", stored)

	st = s.Commit(SetAccessToken(""))
	assert.Empty(t, st.AccessToken)
	_, ok, _ = storage.Get(AccessTokenKey)
	assert.False(t, ok)
}

type brokenStorage struct{}

func (brokenStorage) Get(string) (string, bool, error) { return "", false, errors.New("disk gone") }
func (brokenStorage) Set(string, string) error         { return errors.New("disk gone") }
func (brokenStorage) Remove(string) error              { return errors.New("disk gone") }

func TestStore_SetAccessTokenStorageFailureKeepsState(t *testing.T) {
	s := NewStore(brokenStorage{}, zerolog.Nop())

	st := s.Commit(SetAccessToken("tok"))
	assert.Equal(t, "tok", st.AccessToken)

	st = s.Commit(SetAccessToken(""))
	assert.Empty(t, st.AccessToken)
}

func TestStore_SetUserErrorOrLogout(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())
	s.Commit(SetUser(domain.PublicUser{ID: "u1"}))
	s.Commit(SetAccessToken("tok"))

	apiErr := domain.NewAPIError(401, "invalid credentials").WithArea(AreaLogin)
	st := s.Commit(SetUserErrorOrLogout(apiErr))

	assert.Equal(t, apiErr, st.Error)
	assert.True(t, st.User.IsZero())
	assert.False(t, st.IsAuthenticated)
	assert.False(t, st.LoadingUser)
	assert.Empty(t, st.AccessToken)

	st = s.Commit(SetUserErrorOrLogout(nil))
	assert.Nil(t, st.Error)
}

func TestStore_SubscribersSeeEveryCommit(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())

	var names []string
	var last State
	s.Subscribe(func(m Mutation, st State) {
		names = append(names, m.Name())
		last = st
	})

	s.Commit(SetUser(domain.PublicUser{ID: "u1"}))
	s.Commit(SetAccessToken("tok"))
	s.Commit(SetUserErrorOrLogout(nil))

	assert.Equal(t, []string{MutationSetUser, MutationSetAccessToken, MutationSetUserErrorLogout}, names)
	assert.False(t, last.IsAuthenticated)
}

func TestStore_ConcurrentCommits(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())

	var mu sync.Mutex
	count := 0
	s.Subscribe(func(Mutation, State) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Commit(SetUser(domain.PublicUser{ID: "u"}))
			_ = s.State()
		}()
	}
	wg.Wait()

	require.Equal(t, 50, count)
	assert.True(t, s.State().IsAuthenticated)
}
