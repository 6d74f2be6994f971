package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/salespipe/crm-mcp-server/pkg/crm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(func(creds Credentials) (*crm.Client, error) {
		return crm.New(creds.CompanyDomain, creds.APIToken, nil)
	}, &StoreOptions{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestResolveCreatesAndSticks(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	first := Credentials{APIToken: "tok-a", CompanyDomain: "a.example.com"}

	sess, err := store.Resolve("s1", first)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sess.Credentials != first {
		t.Fatalf("bound credentials = %+v, want %+v", sess.Credentials, first)
	}

	// A second resolve with different credentials must not override.
	again, err := store.Resolve("s1", Credentials{APIToken: "tok-b", CompanyDomain: "b.example.com"})
	if err != nil {
		t.Fatalf("Resolve again: %v", err)
	}
	if again.Credentials != first {
		t.Fatalf("session was silently re-bound: %+v", again.Credentials)
	}
	if again != sess {
		t.Fatalf("expected the same session instance")
	}
}

func TestResolveRequiresCompleteCredentials(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	if _, err := store.Resolve("s1", Credentials{}); !errors.Is(err, ErrCredentialsRequired) {
		t.Fatalf("Resolve with no creds: %v, want ErrCredentialsRequired", err)
	}
	if _, err := store.Resolve("s1", Credentials{APIToken: "only-token"}); !errors.Is(err, ErrCredentialsRequired) {
		t.Fatalf("Resolve with partial creds: %v, want ErrCredentialsRequired", err)
	}
	if _, ok := store.Lookup("s1"); ok {
		t.Fatalf("no session may be created as a side effect of a rejected resolve")
	}
}

func TestRebindReplacesSession(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if _, err := store.Resolve("s1", Credentials{APIToken: "tok-a", CompanyDomain: "a.example.com"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	fresh := Credentials{APIToken: "tok-b", CompanyDomain: "b.example.com"}
	sess, err := store.Rebind("s1", fresh)
	if err != nil {
		t.Fatalf("Rebind: %v", err)
	}
	if sess.Credentials != fresh {
		t.Fatalf("rebind kept stale credentials: %+v", sess.Credentials)
	}

	got, ok := store.Lookup("s1")
	if !ok || got.Credentials != fresh {
		t.Fatalf("store holds %+v, want rebound session", got)
	}
	if store.Len() != 1 {
		t.Fatalf("rebind must not leak sessions, len = %d", store.Len())
	}
}

func TestRebindRequiresCompleteCredentials(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if _, err := store.Rebind("s1", Credentials{APIToken: "only"}); !errors.Is(err, ErrCredentialsRequired) {
		t.Fatalf("Rebind: %v, want ErrCredentialsRequired", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if _, err := store.Resolve("s1", Credentials{APIToken: "t", CompanyDomain: "d.example.com"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	store.Release("s1")
	store.Release("s1")
	if _, ok := store.Lookup("s1"); ok {
		t.Fatalf("session survived release")
	}
}

func TestConcurrentResolveSingleCreator(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	creds := Credentials{APIToken: "tok", CompanyDomain: "d.example.com"}

	const n = 32
	sessions := make([]*Session, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, err := store.Resolve("shared", creds)
			if err != nil {
				t.Errorf("Resolve: %v", err)
				return
			}
			sessions[i] = sess
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if sessions[i] != sessions[0] {
			t.Fatalf("two concurrent resolvers both created the session")
		}
	}
	if store.Len() != 1 {
		t.Fatalf("len = %d, want 1", store.Len())
	}
}

func TestSessionIsolationAcrossContexts(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	aCreds := Credentials{APIToken: "tok-a", CompanyDomain: "a.example.com"}
	bCreds := Credentials{APIToken: "tok-b", CompanyDomain: "b.example.com"}
	if _, err := store.Resolve("sess-a", aCreds); err != nil {
		t.Fatalf("Resolve a: %v", err)
	}
	if _, err := store.Resolve("sess-b", bCreds); err != nil {
		t.Fatalf("Resolve b: %v", err)
	}

	ctxA := WithID(context.Background(), "sess-a")
	ctxB := WithID(context.Background(), "sess-b")

	// Interleave lookups from both contexts across goroutines; each must only
	// ever observe its own credential set.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sa, err := store.SessionFor(ctxA)
				if err != nil || sa.Credentials != aCreds {
					t.Errorf("context A observed %+v (err %v)", sa, err)
					return
				}
				sb, err := store.SessionFor(ctxB)
				if err != nil || sb.Credentials != bCreds {
					t.Errorf("context B observed %+v (err %v)", sb, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestSessionForOutsideScope(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if _, err := store.SessionFor(context.Background()); !errors.Is(err, ErrCredentialsRequired) {
		t.Fatalf("SessionFor outside scope: %v, want ErrCredentialsRequired", err)
	}
}
