package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

// countingProvider wraps Static and counts upstream hits, failing once
// armed.
type countingProvider struct {
	inner *Static
	calls int
	fail  bool
}

func (p *countingProvider) Exists(ctx context.Context, id string) (bool, error) {
	p.calls++
	if p.fail {
		return false, errors.New("registry down")
	}
	return p.inner.Exists(ctx, id)
}

func (p *countingProvider) WeeklyTemplate(ctx context.Context, id string) (model.WeeklyTemplate, error) {
	if p.fail {
		return model.WeeklyTemplate{}, errors.New("registry down")
	}
	return p.inner.WeeklyTemplate(ctx, id)
}

func TestCached_MemoizesLookups(t *testing.T) {
	static := NewStatic()
	static.Add("room-a", model.DefaultTemplate())
	upstream := &countingProvider{inner: static}
	cached := NewCached(upstream, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := cached.Exists(ctx, "room-a")
		if err != nil || !ok {
			t.Fatalf("Exists: ok=%v err=%v", ok, err)
		}
		if _, err := cached.WeeklyTemplate(ctx, "room-a"); err != nil {
			t.Fatalf("WeeklyTemplate: %v", err)
		}
	}
	if upstream.calls != 1 {
		t.Fatalf("expected a single upstream fetch, got %d", upstream.calls)
	}
}

func TestCached_NegativeAnswersAreCached(t *testing.T) {
	upstream := &countingProvider{inner: NewStatic()}
	cached := NewCached(upstream, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if ok, err := cached.Exists(ctx, "ghost"); err != nil || ok {
			t.Fatalf("Exists: ok=%v err=%v", ok, err)
		}
	}
	if _, err := cached.WeeklyTemplate(ctx, "ghost"); !errors.Is(err, ErrUnknownResource) {
		t.Fatalf("expected ErrUnknownResource, got %v", err)
	}
	if upstream.calls != 1 {
		t.Fatalf("expected a single upstream fetch, got %d", upstream.calls)
	}
}

func TestCached_ServesStaleOnUpstreamFailure(t *testing.T) {
	static := NewStatic()
	static.Add("room-a", model.DefaultTemplate())
	upstream := &countingProvider{inner: static}
	cached := NewCached(upstream, time.Nanosecond)
	ctx := context.Background()

	if _, err := cached.WeeklyTemplate(ctx, "room-a"); err != nil {
		t.Fatalf("warm fetch: %v", err)
	}

	upstream.fail = true
	time.Sleep(time.Millisecond)

	tpl, err := cached.WeeklyTemplate(ctx, "room-a")
	if err != nil {
		t.Fatalf("expected stale template, got %v", err)
	}
	if tpl.StartMinute != 540 || tpl.EndMinute != 1020 {
		t.Fatalf("unexpected stale template: %+v", tpl)
	}

	// Ids never cached fail outright once the upstream is down.
	if _, err := cached.Exists(ctx, "never-seen"); err == nil {
		t.Fatal("expected error for uncached id while upstream is down")
	}
}
