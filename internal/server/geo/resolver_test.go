package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/logging"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger          { return n }

type countingLookuper struct {
	calls atomic.Int32
	label string
	err   error
}

func (c *countingLookuper) Lookup(ctx context.Context, ip string) (string, error) {
	c.calls.Add(1)
	return c.label, c.err
}

func geoServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPResolver_Lookup(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{"city and country", 200, `{"status":"success","city":"Paris","country":"France"}`, "Paris, France", false},
		{"country only", 200, `{"status":"success","country":"France"}`, "France", false},
		{"reserved range", 200, `{"status":"fail","message":"reserved range"}`, "", true},
		{"empty", 200, `{"status":"success"}`, "", true},
		{"server error", 500, ``, "", true},
		{"garbage", 200, `<html>`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path string
			srv := geoServer(t, func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.Path
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := NewHTTPResolver(srv.URL+"/json/", time.Second).Lookup(context.Background(), "203.0.113.9")
			assert.Equal(t, "/json/203.0.113.9", path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTTPResolver_Timeout(t *testing.T) {
	srv := geoServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	_, err := NewHTTPResolver(srv.URL, 20*time.Millisecond).Lookup(context.Background(), "203.0.113.9")
	require.Error(t, err)
}

func TestCachedResolver_MemoryCache(t *testing.T) {
	up := &countingLookuper{label: "Paris, France"}
	r := NewCachedResolver(up, NewMemoryCache(time.Minute), time.Minute, nopLogger{})

	ctx := context.Background()
	assert.Equal(t, "Paris, France", r.Resolve(ctx, "203.0.113.9:1234"))
	assert.Equal(t, "Paris, France", r.Resolve(ctx, "203.0.113.9"))
	assert.EqualValues(t, 1, up.calls.Load())
}

func TestCachedResolver_FailuresAreNotCached(t *testing.T) {
	up := &countingLookuper{err: errors.New("down")}
	r := NewCachedResolver(up, NewMemoryCache(time.Minute), time.Minute, nopLogger{})

	ctx := context.Background()
	assert.Equal(t, UnknownLocation, r.Resolve(ctx, "203.0.113.9"))
	assert.Equal(t, UnknownLocation, r.Resolve(ctx, "203.0.113.9"))
	assert.EqualValues(t, 2, up.calls.Load())
}

func TestCachedResolver_NoCache(t *testing.T) {
	up := &countingLookuper{label: "Oslo, Norway"}
	r := NewCachedResolver(up, nil, 0, nopLogger{})

	assert.Equal(t, "Oslo, Norway", r.Resolve(context.Background(), "127.0.0.1"))
}

func TestCachedResolver_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	up := &countingLookuper{label: "Lima, Peru"}
	r := NewCachedResolver(up, NewRedisCache(client), time.Hour, nopLogger{})

	ctx := context.Background()
	assert.Equal(t, "Lima, Peru", r.Resolve(ctx, "198.51.100.4"))
	assert.Equal(t, "Lima, Peru", r.Resolve(ctx, "198.51.100.4"))
	assert.EqualValues(t, 1, up.calls.Load())

	stored, err := mr.Get("geo:198.51.100.4")
	require.NoError(t, err)
	assert.Equal(t, "Lima, Peru", stored)

	mr.FastForward(2 * time.Hour)
	assert.Equal(t, "Lima, Peru", r.Resolve(ctx, "198.51.100.4"))
	assert.EqualValues(t, 2, up.calls.Load())
}

func TestCachedResolver_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	up := &countingLookuper{label: "Lima, Peru"}
	r := NewCachedResolver(up, NewRedisCache(client), time.Hour, nopLogger{})

	assert.Equal(t, "Lima, Peru", r.Resolve(context.Background(), "198.51.100.4"))
}

func TestStaticResolver(t *testing.T) {
	assert.Equal(t, UnknownLocation, StaticResolver{}.Resolve(context.Background(), "x"))
	assert.Equal(t, "Home", StaticResolver{Label: "Home"}.Resolve(context.Background(), "x"))
}
