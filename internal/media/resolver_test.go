package media

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/olympia-platform/internal/platform/signing"
)

func TestSignedResolver_IssuesVerifiableLink(t *testing.T) {
	r := NewSignedResolver("https://media.olympia.school/objects", "test-secret", 15*time.Minute)

	link, err := r.ResolveURL(context.Background(), "u1", "crash-course/celestial-01.mp4")
	if err != nil {
		t.Fatalf("ResolveURL() error = %v", err)
	}

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("unparseable link %q: %v", link, err)
	}
	if !strings.HasSuffix(u.Path, "/objects/crash-course/celestial-01.mp4") {
		t.Fatalf("unexpected path %q", u.Path)
	}

	signed, err := signing.ExtractSigned("crash-course/celestial-01.mp4", u.Query())
	if err != nil {
		t.Fatalf("ExtractSigned() error = %v", err)
	}
	if !r.Signer.Verify(signed.Path, signed.UID, signed.Exp, signed.Sig) {
		t.Fatal("issued link failed verification")
	}
	if signed.UID != "u1" {
		t.Fatalf("link must be bound to the requesting user, got %q", signed.UID)
	}
}

func TestSignedResolver_ExpirySetFromTTL(t *testing.T) {
	r := NewSignedResolver("https://media.olympia.school", "test-secret", 10*time.Minute)

	link, _ := r.ResolveURL(context.Background(), "u1", "solutions/grav-07.pdf")
	u, _ := url.Parse(link)
	exp, err := strconv.ParseInt(u.Query().Get("exp"), 10, 64)
	if err != nil {
		t.Fatalf("bad exp param: %v", err)
	}

	want := time.Now().Add(10 * time.Minute).Unix()
	if exp < want-5 || exp > want+5 {
		t.Fatalf("exp %d not within 5s of %d", exp, want)
	}
}

func TestSignedResolver_EmptyPathIsNotFound(t *testing.T) {
	r := NewSignedResolver("https://media.olympia.school", "test-secret", time.Minute)

	_, err := r.ResolveURL(context.Background(), "u1", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ResolveURL(\"\") error = %v, want ErrNotFound", err)
	}
}

// ─── cached resolver ─────────────────────────────────────────────────────────

type fakeCache struct {
	data     map[string]string
	getErr   error
	setErr   error
	getCalls int
	setCalls int
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string]string{}} }

func (c *fakeCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	c.getCalls++
	if c.getErr != nil {
		return false, c.getErr
	}
	v, ok := c.data[key]
	if !ok {
		return false, nil
	}
	*dest.(*string) = v
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value any) error {
	c.setCalls++
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value.(string)
	return nil
}

type countingResolver struct {
	calls int
	err   error
}

func (r *countingResolver) ResolveURL(ctx context.Context, userID, storagePath string) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return "https://media.olympia.school/" + storagePath + "?n=" + strconv.Itoa(r.calls), nil
}

func TestCachedResolver_SecondCallHitsCache(t *testing.T) {
	inner := &countingResolver{}
	cache := newFakeCache()
	r := NewCachedResolver(inner, cache, zap.NewNop())
	ctx := context.Background()

	first, err := r.ResolveURL(ctx, "u1", "crash-course/intro.mp4")
	if err != nil {
		t.Fatalf("ResolveURL() error = %v", err)
	}
	second, err := r.ResolveURL(ctx, "u1", "crash-course/intro.mp4")
	if err != nil {
		t.Fatalf("second ResolveURL() error = %v", err)
	}
	if first != second {
		t.Fatalf("expected cached link, got %q then %q", first, second)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 resolution, got %d", inner.calls)
	}
}

func TestCachedResolver_KeyedPerUserAndPath(t *testing.T) {
	inner := &countingResolver{}
	r := NewCachedResolver(inner, newFakeCache(), zap.NewNop())
	ctx := context.Background()

	_, _ = r.ResolveURL(ctx, "u1", "a.mp4")
	_, _ = r.ResolveURL(ctx, "u2", "a.mp4")
	_, _ = r.ResolveURL(ctx, "u1", "b.mp4")

	if inner.calls != 3 {
		t.Fatalf("distinct (user, path) pairs must resolve separately, got %d calls", inner.calls)
	}
}

func TestCachedResolver_CacheFailureDegradesToResolver(t *testing.T) {
	inner := &countingResolver{}
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	r := NewCachedResolver(inner, cache, zap.NewNop())

	link, err := r.ResolveURL(context.Background(), "u1", "a.mp4")
	if err != nil {
		t.Fatalf("ResolveURL() error = %v", err)
	}
	if link == "" || inner.calls != 1 {
		t.Fatalf("expected direct resolution despite cache failure, got %q (%d calls)", link, inner.calls)
	}
}

func TestCachedResolver_ResolutionErrorNotCached(t *testing.T) {
	inner := &countingResolver{err: ErrNotFound}
	cache := newFakeCache()
	r := NewCachedResolver(inner, cache, zap.NewNop())

	_, err := r.ResolveURL(context.Background(), "u1", "missing.mp4")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ResolveURL() error = %v, want ErrNotFound", err)
	}
	if cache.setCalls != 0 {
		t.Fatalf("failed resolutions must not be cached, got %d sets", cache.setCalls)
	}
}
