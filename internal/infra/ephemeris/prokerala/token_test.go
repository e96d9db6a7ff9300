package prokerala

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	apperrors "github.com/yanqian/astrochart/pkg/errors"
)

type staticSource struct {
	token string
	err   error
}

func (s staticSource) Token(context.Context) (*oauth2.Token, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &oauth2.Token{AccessToken: s.token, TokenType: "Bearer"}, nil
}

type countingSource struct {
	issued []*oauth2.Token
	calls  int
}

func (s *countingSource) Token(context.Context) (*oauth2.Token, error) {
	tok := s.issued[s.calls]
	s.calls++
	return tok, nil
}

func TestTokenHolderLifecycle(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	source := &countingSource{issued: []*oauth2.Token{
		{AccessToken: "first", Expiry: now.Add(time.Hour)},
		{AccessToken: "second", Expiry: now.Add(2 * time.Hour)},
		{AccessToken: "third", Expiry: now.Add(3 * time.Hour)},
	}}
	holder := NewTokenHolder(source, nil)
	holder.now = func() time.Time { return now }

	require.Equal(t, TokenNone, holder.State())

	tok, err := holder.Current(context.Background())
	require.NoError(t, err)
	require.Equal(t, "first", tok)
	require.Equal(t, TokenValid, holder.State())

	tok, err = holder.Current(context.Background())
	require.NoError(t, err)
	require.Equal(t, "first", tok)
	require.Equal(t, 1, source.calls)

	holder.Expire("stale-token")
	require.Equal(t, TokenValid, holder.State())

	holder.Expire("first")
	require.Equal(t, TokenExpired, holder.State())

	tok, err = holder.Current(context.Background())
	require.NoError(t, err)
	require.Equal(t, "second", tok)
	require.Equal(t, TokenValid, holder.State())

	now = now.Add(2 * time.Hour)
	require.Equal(t, TokenExpired, holder.State())
	tok, err = holder.Current(context.Background())
	require.NoError(t, err)
	require.Equal(t, "third", tok)
	require.Equal(t, 3, source.calls)
}

type gatedSource struct {
	release chan struct{}
	calls   atomic.Int32
}

func (s *gatedSource) Token(context.Context) (*oauth2.Token, error) {
	s.calls.Add(1)
	<-s.release
	return &oauth2.Token{AccessToken: "shared", Expiry: time.Now().Add(time.Hour)}, nil
}

func TestTokenHolderConcurrentCallersShareOneGrant(t *testing.T) {
	source := &gatedSource{release: make(chan struct{})}
	holder := NewTokenHolder(source, nil)

	var wg sync.WaitGroup
	tokens := make([]string, 8)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := holder.Current(context.Background())
			if err == nil {
				tokens[i] = tok
			}
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(source.release)
	wg.Wait()

	require.EqualValues(t, 1, source.calls.Load())
	for _, tok := range tokens {
		require.Equal(t, "shared", tok)
	}
	require.Equal(t, TokenValid, holder.State())
}

func TestTokenHolderRefreshFailureIsAuthError(t *testing.T) {
	holder := NewTokenHolder(staticSource{err: errors.New("invalid_client")}, nil)
	_, err := holder.Current(context.Background())
	require.True(t, apperrors.IsCode(err, apperrors.CodeAuth))
	require.Equal(t, TokenNone, holder.State())

	holder = NewTokenHolder(staticSource{token: "  "}, nil)
	_, err = holder.Refresh(context.Background())
	require.True(t, apperrors.IsCode(err, apperrors.CodeAuth))
}

func TestTokenHolderReadsJWTExpiryWhenGrantOmitsIt(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": now.Add(10 * time.Minute).Unix(),
	}).SignedString([]byte("provider-secret"))
	require.NoError(t, err)

	holder := NewTokenHolder(staticSource{token: raw}, nil)
	holder.now = func() time.Time { return now }
	_, err = holder.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, TokenValid, holder.State())

	now = now.Add(10 * time.Minute)
	require.Equal(t, TokenExpired, holder.State())
}

func TestJWTExpiryIgnoresOpaqueTokens(t *testing.T) {
	require.True(t, jwtExpiry("opaque-access-token").IsZero())
}
