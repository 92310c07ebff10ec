package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/raysh454/browserbridge/internal/browser"
	"github.com/raysh454/browserbridge/internal/model"
)

func TestNormalize(t *testing.T) {
	t.Parallel()
	sol := normalize(&browser.RawResult{Status: 404, Body: "gone"}, "http://example.test/x")
	if sol.URL != "http://example.test/x" || sol.Status != 404 || sol.Response != "gone" {
		t.Errorf("solution = %+v", sol)
	}
	if sol.Headers == nil || sol.Cookies == nil {
		t.Error("nil collections in solution")
	}

	empty := normalize(nil, "http://example.test/")
	if empty.Headers == nil || empty.Status != 0 {
		t.Errorf("normalize(nil) = %+v", empty)
	}
}

func TestNormalize_CopiesHeaders(t *testing.T) {
	t.Parallel()
	raw := &browser.RawResult{Headers: map[string]string{"a": "1"}}
	sol := normalize(raw, "http://example.test/")
	raw.Headers["a"] = "2"
	if sol.Headers["a"] != "1" {
		t.Error("solution shares the raw header map")
	}
}

func TestStrategyFor(t *testing.T) {
	t.Parallel()
	if strategyFor(model.CmdRequestGet) == nil || strategyFor(model.CmdRequestPost) == nil {
		t.Fatal("missing strategy for a supported command")
	}
	if strategyFor("request.put") != nil {
		t.Error("strategy returned for unsupported command")
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		want Kind
	}{
		{browser.ErrLaunch, KindSessionLaunch},
		{browser.ErrNavigationTimeout, KindNavigationTimeout},
		{context.DeadlineExceeded, KindNavigationTimeout},
		{browser.ErrNavigationFailed, KindExecution},
		{browser.ErrSessionClosed, KindExecution},
		{context.Canceled, KindExecution},
		{errors.New("other"), KindInternal},
		{&Error{Kind: KindOverloaded, Message: "busy"}, KindOverloaded},
	}
	for _, tc := range cases {
		if got := classify(KindInternal, tc.err).Kind; got != tc.want {
			t.Errorf("classify(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestAdmission_ReleaseFreesSlot(t *testing.T) {
	t.Parallel()
	a := newAdmission(1, 10*time.Millisecond)
	if err := a.acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	err := a.acquire(context.Background())
	var be *Error
	if !errors.As(err, &be) || be.Kind != KindOverloaded {
		t.Fatalf("second acquire err = %v, want overloaded", err)
	}
	a.release()
	if err := a.acquire(context.Background()); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	a.release()
}

func TestAdmission_CallerCancel(t *testing.T) {
	t.Parallel()
	a := newAdmission(1, time.Minute)
	if err := a.acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer a.release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
