package session

import "testing"

func TestParseBearer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   Credentials
	}{
		{
			name:   "token and domain",
			header: "Bearer abc123:corp.example.com",
			want:   Credentials{APIToken: "abc123", CompanyDomain: "corp.example.com"},
		},
		{
			name:   "splits on first colon only",
			header: "Bearer abc:my.co:8080",
			want:   Credentials{APIToken: "abc", CompanyDomain: "my.co:8080"},
		},
		{
			name:   "no colon yields incomplete credentials",
			header: "Bearer abc123",
			want:   Credentials{APIToken: "abc123"},
		},
		{
			name:   "missing header",
			header: "",
			want:   Credentials{},
		},
		{
			name:   "wrong scheme",
			header: "Basic abc123:corp.example.com",
			want:   Credentials{},
		},
		{
			name:   "bare scheme",
			header: "Bearer ",
			want:   Credentials{},
		},
		{
			name:   "empty token",
			header: "Bearer :corp.example.com",
			want:   Credentials{CompanyDomain: "corp.example.com"},
		},
		{
			name:   "empty domain",
			header: "Bearer abc123:",
			want:   Credentials{APIToken: "abc123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParseBearer(tt.header)
			if got != tt.want {
				t.Fatalf("ParseBearer(%q) = %+v, want %+v", tt.header, got, tt.want)
			}
		})
	}
}

func TestCredentialsComplete(t *testing.T) {
	t.Parallel()

	if (Credentials{APIToken: "a"}).Complete() {
		t.Fatalf("token-only credentials must not be complete")
	}
	if (Credentials{CompanyDomain: "d"}).Complete() {
		t.Fatalf("domain-only credentials must not be complete")
	}
	if !(Credentials{APIToken: "a", CompanyDomain: "d"}).Complete() {
		t.Fatalf("full credentials must be complete")
	}
}

func TestRedactedTokenNeverEchoesSecret(t *testing.T) {
	t.Parallel()

	creds := Credentials{APIToken: "super-secret-token-9876"}
	got := creds.RedactedToken()
	if got != "****9876" {
		t.Fatalf("RedactedToken() = %q", got)
	}
	if (Credentials{APIToken: "abc"}).RedactedToken() != "****" {
		t.Fatalf("short tokens must be fully masked")
	}
}
