package simplefin

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"time"

	treeline "github.com/zack-schrag/treeline-money-sub002"
	"github.com/zack-schrag/treeline-money-sub002/date"
)

// diskCache caches successful GET responses on disk, keyed per calendar
// day, so repeated syncs while iterating do not hammer the bridge. The key
// embeds today's date, which makes every entry expire at midnight.
type diskCache struct {
	base http.RoundTripper
}

func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return c.base.RoundTrip(req)
	}
	key := fmt.Sprintf("%s %s %s", date.Today(), req.Method, req.URL.String())
	key = fmt.Sprintf("treeline-%x", sha1.Sum([]byte(key)))

	if resp, err := c.get(key, req); err == nil {
		return resp, nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	logger := treeline.Logger(req.Context())
	logger.Debug().Str("host", req.URL.Host).Str("status", resp.Status).Msg("bridge request")
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		logger.Debug().Err(err).Msg("cache write skipped")
	}
	return resp, nil
}

func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(os.TempDir(), key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

func (c *diskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(os.TempDir(), key), content, 0o600)
}

// CachedClient returns a client whose GET responses are reused for the rest
// of the day. Development convenience only; never use it to claim a setup
// token (tokens are single-use, and POSTs bypass the cache anyway).
func CachedClient() *http.Client {
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: &diskCache{base: http.DefaultTransport},
	}
}
