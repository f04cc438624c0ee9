package http

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/econest/web/internal/web/store/drivers/sqlite"
	"github.com/econest/web/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestReadyzReportsKeys(t *testing.T) {
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	keys := jwtx.NewKeySet()
	h := ReadyzHandler(time.Now(), "test", st, keys)

	t.Run("no keys yet", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "degraded", body.Status)
		require.Zero(t, body.Checks.KeyCount)
		require.Nil(t, body.Checks.KeysRefreshedAt)
	})

	t.Run("keys loaded", func(t *testing.T) {
		priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)
		_, err = keys.ResetFromJWKS(jwtx.JWKS{Keys: []jwtx.JWK{jwtx.NewES256JWK("k1", &priv.PublicKey)}})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "ok", body.Checks.Keys)
		require.Equal(t, 1, body.Checks.KeyCount)
		require.NotNil(t, body.Checks.KeysRefreshedAt)
	})
}
