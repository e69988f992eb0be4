package firebase

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/sync/singleflight"
)

// KeySource resolves the public key that signed an ID token.
type KeySource interface {
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

var ErrUnknownKey = errors.New("unknown signing key")

// StaticKeys is a fixed kid -> key set.
type StaticKeys map[string]*rsa.PublicKey

func (s StaticKeys) Key(_ context.Context, kid string) (*rsa.PublicKey, error) {
	k, ok := s[kid]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, kid)
	}
	return k, nil
}

// MinRefreshInterval bounds how often an unknown kid can trigger a fetch.
// Key ids come from unauthenticated tokens.
const MinRefreshInterval = time.Minute

// GoogleCertSource serves keys from Google's x509 certificate endpoint and
// caches them for as long as the response's Cache-Control max-age allows.
type GoogleCertSource struct {
	url    string
	client *http.Client
	now    func() time.Time
	group  singleflight.Group

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expires   time.Time
	fetchedAt time.Time
}

func NewGoogleCertSource(url string, client *http.Client) *GoogleCertSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleCertSource{url: url, client: client, now: time.Now}
}

func (g *GoogleCertSource) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	now := g.now()
	g.mu.RLock()
	k, ok := g.keys[kid]
	fresh := now.Before(g.expires)
	recent := now.Sub(g.fetchedAt) < MinRefreshInterval
	g.mu.RUnlock()
	if ok && fresh {
		return k, nil
	}
	if fresh && recent {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, kid)
	}

	// Concurrent misses share one fetch.
	if _, err, _ := g.group.Do("certs", func() (any, error) {
		return nil, g.refresh(ctx)
	}); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if k, ok := g.keys[kid]; ok {
		return k, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKey, kid)
}

func (g *GoogleCertSource) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url, nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch signing certs: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch signing certs: status %d", resp.StatusCode)
	}

	var pems map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&pems); err != nil {
		return fmt.Errorf("decode signing certs: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(pems))
	for kid, pem := range pems {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return fmt.Errorf("parse signing cert %q: %w", kid, err)
		}
		keys[kid] = key
	}

	now := g.now()
	g.mu.Lock()
	g.keys = keys
	g.fetchedAt = now
	g.expires = now.Add(max(maxAge(resp.Header.Get("Cache-Control")), MinRefreshInterval))
	g.mu.Unlock()
	return nil
}

// maxAge extracts max-age from a Cache-Control header, zero when absent.
func maxAge(cacheControl string) time.Duration {
	for _, part := range strings.Split(cacheControl, ",") {
		part = strings.TrimSpace(part)
		if v, ok := strings.CutPrefix(part, "max-age="); ok {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return 0
}
