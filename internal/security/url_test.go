package security

import (
	"strings"
	"testing"
)

func TestValidate_AllowsPublicURLs(t *testing.T) {
	v := NewURL()

	urls := []string{
		"https://example.com",
		"http://example.com/path?q=1",
		"https://duckduckgo.com/html/?q=golang",
	}
	for _, u := range urls {
		if err := v.Validate(u); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", u, err)
		}
	}
}

func TestValidate_BlocksDangerousURLs(t *testing.T) {
	v := NewURL()

	tests := []struct {
		url     string
		wantSub string
	}{
		{"ftp://example.com/file", "unsupported scheme"},
		{"file:///etc/passwd", "unsupported scheme"},
		{"http://localhost:8080/admin", "blocked host"},
		{"http://metadata.google.internal/computeMetadata/v1/", "blocked host"},
		{"http://127.0.0.1/", "loopback"},
		{"http://[::1]/", "loopback"},
		{"http://10.0.0.5/", "private IP"},
		{"http://192.168.1.1/", "private IP"},
		{"http://172.16.0.1/", "private IP"},
		{"http://169.254.169.254/latest/meta-data/", "link-local"},
		{"http://0.0.0.0/", "unspecified"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := v.Validate(tt.url)
			if err == nil {
				t.Fatalf("Validate(%q) = nil, want error", tt.url)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("Validate(%q) = %v, want substring %q", tt.url, err, tt.wantSub)
			}
		})
	}
}

func TestValidate_IPv6MappedIPv4(t *testing.T) {
	v := NewURL()
	// ::ffff:127.0.0.1 must normalize to loopback, not pass as "IPv6 other".
	if err := v.Validate("http://[::ffff:127.0.0.1]/"); err == nil {
		t.Error("expected IPv6-mapped loopback to be blocked")
	}
}

func TestClient_HasTimeoutAndRedirectPolicy(t *testing.T) {
	v := NewURL()
	c := v.Client(0)
	if c.CheckRedirect == nil {
		t.Error("expected redirect policy to be set")
	}
	if c.Transport == nil {
		t.Error("expected safe transport to be set")
	}
}
