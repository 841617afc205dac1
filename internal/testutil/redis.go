//go:build integration

package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// ResultsDB is the database integration tests publish results to.
const ResultsDB = 9

// RedisAddr returns the address of the test Redis server (IP:port).
// It first checks ZTPFAB_TEST_REDIS_ADDR, then asks Docker for the IP of
// the ztpfab-test-redis container.
func RedisAddr() string {
	if addr := os.Getenv("ZTPFAB_TEST_REDIS_ADDR"); addr != "" {
		return addr
	}
	out, err := exec.Command("docker", "inspect",
		"--format", "{{range .NetworkSettings.Networks}}{{.IPAddress}}{{end}}",
		"ztpfab-test-redis").Output()
	if err != nil {
		return ""
	}
	if ip := strings.TrimSpace(string(out)); ip != "" {
		return ip + ":6379"
	}
	return ""
}

// SkipIfNoRedis skips the test if the test Redis server is not reachable.
func SkipIfNoRedis(t *testing.T) {
	t.Helper()

	addr := RedisAddr()
	if addr == "" {
		t.Skip("test Redis not available: set ZTPFAB_TEST_REDIS_ADDR")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("test Redis not reachable at %s: %v", addr, err)
	}
}

// RedisURL returns the redis:// URL of db on the test server.
func RedisURL(db int) string {
	return fmt.Sprintf("redis://%s/%d", RedisAddr(), db)
}

// FlushDB empties db on the test server.
func FlushDB(t *testing.T, db int) {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: RedisAddr(), DB: db})
	defer client.Close()

	if err := client.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flushing DB %d: %v", db, err)
	}
}

// ListLen returns the length of the list at key in db.
func ListLen(t *testing.T, db int, key string) int {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: RedisAddr(), DB: db})
	defer client.Close()

	n, err := client.LLen(context.Background(), key).Result()
	if err != nil {
		t.Fatalf("reading length of %s: %v", key, err)
	}
	return int(n)
}

// Context returns a context with a reasonable timeout for tests.
// The cancel function is registered via t.Cleanup.
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}
