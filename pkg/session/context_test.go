package session

import (
	"context"
	"sync"
	"testing"
)

func TestIDFromContextOutsideScope(t *testing.T) {
	t.Parallel()

	if got := IDFromContext(context.Background()); got != "" {
		t.Fatalf("IDFromContext outside scope = %q, want empty", got)
	}
}

func TestWithIDSurvivesNesting(t *testing.T) {
	t.Parallel()

	ctx := WithID(context.Background(), "outer")
	nested := context.WithValue(ctx, struct{ k string }{"unrelated"}, 42)
	if got := IDFromContext(nested); got != "outer" {
		t.Fatalf("nested context lost session id: %q", got)
	}

	inner := WithID(nested, "inner")
	if got := IDFromContext(inner); got != "inner" {
		t.Fatalf("inner scope = %q, want inner", got)
	}
	if got := IDFromContext(nested); got != "outer" {
		t.Fatalf("outer scope disturbed by inner binding: %q", got)
	}
}

func TestConcurrentScopesDoNotCrossTalk(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		id := string(rune('a' + i%26))
		go func() {
			defer wg.Done()
			ctx := WithID(context.Background(), id)
			done := make(chan struct{})
			go func() {
				defer close(done)
				// Arbitrary asynchronous depth keeps the binding.
				if got := IDFromContext(ctx); got != id {
					t.Errorf("goroutine observed %q, want %q", got, id)
				}
			}()
			<-done
		}()
	}
	wg.Wait()
}

func TestCredentialsRoundTrip(t *testing.T) {
	t.Parallel()

	creds := Credentials{APIToken: "tok", CompanyDomain: "corp.example.com"}
	ctx := WithCredentials(context.Background(), creds)
	if got := CredentialsFromContext(ctx); got != creds {
		t.Fatalf("CredentialsFromContext = %+v", got)
	}
	if got := CredentialsFromContext(context.Background()); got != (Credentials{}) {
		t.Fatalf("empty context returned %+v", got)
	}
}
