package httpclient

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("direct", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "direct")
		}))
		t.Cleanup(srv.Close)

		client, err := New("")
		require.NoError(t, err)
		require.Nil(t, client.Transport.(*http.Transport).Proxy)

		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		bts, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, "direct", string(bts))
	})

	t.Run("through proxy", func(t *testing.T) {
		var seen string
		proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.URL.String()
			_, _ = io.WriteString(w, "proxied")
		}))
		t.Cleanup(proxy.Close)

		client, err := New(proxy.URL)
		require.NoError(t, err)

		resp, err := client.Get("http://example.invalid/models")
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		bts, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, "proxied", string(bts))
		require.Equal(t, "http://example.invalid/models", seen)
	})

	t.Run("invalid proxy", func(t *testing.T) {
		for _, proxy := range []string{"localhost", "://nope", "http://"} {
			_, err := New(proxy)
			require.ErrorIs(t, err, ErrInvalidProxy, proxy)
		}
	})
}
