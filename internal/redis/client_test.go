package redis

import (
	"context"
	"testing"
)

func TestConnect_InvalidURL(t *testing.T) {
	if _, err := Connect(context.Background(), "not-a-redis-url"); err == nil {
		t.Fatal("expected error for malformed URL")
	}
}
