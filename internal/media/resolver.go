// Package media turns stored object paths (lecture videos, solution PDFs,
// problem figures) into time-limited URLs a browser can fetch.
package media

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/example/olympia-platform/internal/platform/signing"
)

// ErrNotFound is returned for an empty or unresolvable storage path.
var ErrNotFound = errors.New("media: object not found")

// Resolver maps a storage path to a fetchable URL for one user.
type Resolver interface {
	ResolveURL(ctx context.Context, userID, storagePath string) (string, error)
}

// SignedResolver issues HMAC-signed links under a media base URL. Links are
// bound to the requesting user and expire after TTL.
type SignedResolver struct {
	BaseURL string
	Signer  *signing.Signer
	TTL     time.Duration
}

func NewSignedResolver(baseURL, secret string, ttl time.Duration) *SignedResolver {
	return &SignedResolver{BaseURL: baseURL, Signer: signing.New(secret), TTL: ttl}
}

func (r *SignedResolver) ResolveURL(ctx context.Context, userID, storagePath string) (string, error) {
	if storagePath == "" {
		return "", ErrNotFound
	}
	signed := r.Signer.Sign(storagePath, userID, time.Now().Add(r.TTL))
	return signing.BuildSignedURL(r.BaseURL, signed)
}

// Cache is the slice of the redis cache a resolver needs.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// CachedResolver caches resolved URLs per (user, path). The cache TTL must be
// shorter than the link TTL or clients can receive already-expired links.
type CachedResolver struct {
	next  Resolver
	cache Cache
	log   *zap.Logger
}

func NewCachedResolver(next Resolver, cache Cache, log *zap.Logger) *CachedResolver {
	return &CachedResolver{next: next, cache: cache, log: log}
}

func cacheKey(userID, storagePath string) string {
	return "media:url:" + userID + ":" + storagePath
}

// ResolveURL serves from cache when possible. Cache failures degrade to the
// underlying resolver; only resolution itself can fail the call.
func (r *CachedResolver) ResolveURL(ctx context.Context, userID, storagePath string) (string, error) {
	key := cacheKey(userID, storagePath)

	var cached string
	if ok, err := r.cache.Get(ctx, key, &cached); err != nil {
		r.log.Warn("media: cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return cached, nil
	}

	resolved, err := r.next.ResolveURL(ctx, userID, storagePath)
	if err != nil {
		return "", err
	}
	if err := r.cache.Set(ctx, key, resolved); err != nil {
		r.log.Warn("media: cache write failed", zap.String("key", key), zap.Error(err))
	}
	return resolved, nil
}
