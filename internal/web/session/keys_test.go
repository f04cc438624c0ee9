package session_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/econest/web/internal/web/session"
	"github.com/econest/web/pkg/jwtx"
	"github.com/econest/web/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type stubKeySource struct {
	calls atomic.Int32
	jwks  jwtx.JWKS
	err   error
}

func (s *stubKeySource) FetchJWKS(ctx context.Context) (jwtx.JWKS, error) {
	s.calls.Add(1)
	return s.jwks, s.err
}

func TestKeyRefresher(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	src := &stubKeySource{jwks: jwtx.JWKS{Keys: []jwtx.JWK{jwtx.NewES256JWK("k1", &key.PublicKey)}}}
	keys := jwtx.NewKeySet()
	r := session.NewKeyRefresher(src, keys, slogx.Discard(), 10*time.Millisecond)

	require.NoError(t, r.Refresh(context.Background()))
	require.True(t, keys.IsReady())

	src.err = errors.New("boom")
	require.Error(t, r.Refresh(context.Background()))
	require.True(t, keys.IsReady(), "old keys survive a failed fetch")

	src.err = nil
	r.Start()
	require.Eventually(t, func() bool { return src.calls.Load() >= 4 }, time.Second, 5*time.Millisecond)
	r.Stop()
}
