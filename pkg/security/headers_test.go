package security

import (
	"net/http"
	"strings"
	"testing"
)

func TestIsSensitiveHeader(t *testing.T) {
	sensitive := []string{
		"Authorization", "Stripe-Signature", "X-Api-Key", "Cookie",
		"X-Refresh-Token", "X-Internal-Trace",
	}
	for _, name := range sensitive {
		if !IsSensitiveHeader(name) {
			t.Fatalf("expected %q to be sensitive", name)
		}
	}
	plain := []string{"Content-Type", "User-Agent", "Accept", ""}
	for _, name := range plain {
		if IsSensitiveHeader(name) {
			t.Fatalf("expected %q to be non-sensitive", name)
		}
	}
}

func TestRedactValue(t *testing.T) {
	if got := RedactValue("short"); got != "****" {
		t.Fatalf("short values should fully mask, got %q", got)
	}
	if got := RedactValue("whsec_abcdef123456"); got != "wh...56" {
		t.Fatalf("unexpected partial mask %q", got)
	}
	long := strings.Repeat("x", 150)
	if got := RedactValue(long); got != "[REDACTED-150chars]" {
		t.Fatalf("unexpected long-value mask %q", got)
	}
	if got := RedactValue(""); got != "" {
		t.Fatalf("empty value should stay empty, got %q", got)
	}
}

func TestRedactHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Stripe-Signature", "t=12345,v1=deadbeefdeadbeef")
	headers.Set("Content-Type", "application/json")
	headers.Set("User-Agent", strings.Repeat("a", 250))

	masked := RedactHeaders(headers)

	sig := masked["Stripe-Signature"]
	if strings.Contains(sig, "deadbeef") {
		t.Fatalf("signature leaked into redacted headers: %q", sig)
	}
	if masked["Content-Type"] != "application/json" {
		t.Fatalf("non-sensitive header should pass through, got %q", masked["Content-Type"])
	}
	ua := masked["User-Agent"]
	if len(ua) != maxNonSensitiveHeaderLength+3 || !strings.HasSuffix(ua, "...") {
		t.Fatalf("long non-sensitive header should truncate, got %d chars", len(ua))
	}

	if got := RedactHeaders(nil); len(got) != 0 {
		t.Fatalf("nil headers should yield empty map, got %v", got)
	}
}
