package assemble

import (
	"testing"
	"time"

	"github.com/driveshelf/driveshelf/internal/render"
)

func testResult(revalidate int) *render.Result {
	return &render.Result{
		Kind:        render.KindText,
		Spec:        render.Spec{Kind: render.KindText, Text: &render.TextSpec{Text: "x"}},
		CachePolicy: &render.CachePolicy{Revalidate: revalidate},
	}
}

func TestContentCacheRoundTrip(t *testing.T) {
	c := NewContentCache(30)
	c.Set("a/b", testResult(30))

	if got := c.Get("a/b"); got == nil {
		t.Fatal("expected cached result")
	}
	if got := c.Get("missing"); got != nil {
		t.Fatal("expected nil for unknown key")
	}
}

func TestContentCacheExpiresByPolicy(t *testing.T) {
	now := time.Now()
	c := NewContentCache(300)
	c.now = func() time.Time { return now }

	c.Set("doc", testResult(30))

	now = now.Add(29 * time.Second)
	if c.Get("doc") == nil {
		t.Fatal("entry within its policy TTL should survive")
	}

	now = now.Add(2 * time.Second)
	if c.Get("doc") != nil {
		t.Fatal("entry past its policy TTL should be evicted")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be deleted, have %d entries", c.Len())
	}
}

func TestContentCacheDefaultTTLWhenNoPolicy(t *testing.T) {
	now := time.Now()
	c := NewContentCache(10)
	c.now = func() time.Time { return now }

	c.Set("doc", &render.Result{Kind: render.KindText})

	now = now.Add(11 * time.Second)
	if c.Get("doc") != nil {
		t.Fatal("entry without a policy should expire under the default TTL")
	}
}

func TestContentCacheZeroTTLNeverExpires(t *testing.T) {
	now := time.Now()
	c := NewContentCache(30)
	c.now = func() time.Time { return now }

	c.Set("doc", testResult(0))

	now = now.Add(24 * time.Hour)
	if c.Get("doc") == nil {
		t.Fatal("revalidate 0 should mean no expiry")
	}
}

func TestContentCacheSetResetsAge(t *testing.T) {
	now := time.Now()
	c := NewContentCache(30)
	c.now = func() time.Time { return now }

	c.Set("doc", testResult(30))
	now = now.Add(25 * time.Second)
	c.Set("doc", testResult(30))
	now = now.Add(25 * time.Second)

	if c.Get("doc") == nil {
		t.Fatal("re-set entry should measure age from the latest Set")
	}
}
