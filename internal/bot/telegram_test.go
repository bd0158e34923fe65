package bot

import (
	"testing"

	"go.opentelemetry.io/otel/trace"

	"signal-desk/internal/config"
)

func TestNewSkipsWithoutToken(t *testing.T) {
	b, err := New(&config.Config{}, trace.NewNoopTracerProvider().Tracer("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != nil {
		t.Fatal("expected nil bot without a token")
	}
}

func TestAuthorized(t *testing.T) {
	b := &Bot{admins: map[int64]struct{}{100: {}}}
	if !b.authorized(100) {
		t.Fatal("listed id must be authorized")
	}
	if b.authorized(200) {
		t.Fatal("unlisted id must not be authorized")
	}

	// An empty allow-list means every caller may post.
	open := &Bot{admins: map[int64]struct{}{}}
	if !open.authorized(200) {
		t.Fatal("empty allow-list must admit everyone")
	}
}
