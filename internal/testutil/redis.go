package testutil

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisLockTTL = 30 * time.Minute

// redisCandidates lists where a test Redis may live, in order: TEST_REDIS_ADDR,
// REDIS_ADDR (CI), the compose service name, then the local ports.
func redisCandidates() []string {
	var out []string
	for _, key := range []string{"TEST_REDIS_ADDR", "REDIS_ADDR"} {
		if v := os.Getenv(key); v != "" {
			out = append(out, v)
		}
	}
	return append(out, "redis:6379", "localhost:56379", "localhost:6379")
}

// SetupTestRedis returns a client on an emptied logical database of the first
// reachable candidate, or skips the test (fails under TEST_REQUIRE_REDIS or
// TEST_REQUIRE_INFRA). Packages running in parallel reserve distinct databases.
func SetupTestRedis(t testing.TB) *redis.Client {
	t.Helper()

	addr, ok := findRedis()
	if !ok {
		if envBool("TEST_REQUIRE_REDIS") || envBool("TEST_REQUIRE_INFRA") {
			t.Fatal("redis not available")
		}
		t.Skip("redis not available")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: reserveRedisDB(t, addr)})
	t.Cleanup(func() { closeQuietly(t, "redis", client) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis at %s: %v", addr, err)
	}
	return client
}

func findRedis() (string, bool) {
	for _, addr := range redisCandidates() {
		c := redis.NewClient(&redis.Options{Addr: addr, DialTimeout: time.Second})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := c.Ping(ctx).Err()
		cancel()
		_ = c.Close()
		if err == nil {
			return addr, true
		}
	}
	return "", false
}

// reserveRedisDB honours TEST_REDIS_DB, otherwise claims one of DB 1..15 with
// a lock key in DB 0, which FlushDB on the test database never touches.
func reserveRedisDB(t testing.TB, addr string) int {
	t.Helper()
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			return i
		}
		t.Logf("ignoring invalid TEST_REDIS_DB=%q", v)
	}

	meta := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { closeQuietly(t, "redis meta", meta) })

	owner := fmt.Sprintf("%d:%d", os.Getpid(), time.Now().UnixNano())
	for db := 1; db <= 15; db++ {
		key := fmt.Sprintf("viveconecta:testutil:db_lock:%d", db)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		ok, err := meta.SetNX(ctx, key, owner, redisLockTTL).Result()
		cancel()
		if err != nil || !ok {
			continue
		}
		t.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := meta.Del(ctx, key).Err(); err != nil {
				t.Logf("release %s: %v", key, err)
			}
		})
		return db
	}
	t.Logf("no free redis database at %s, sharing DB 1", addr)
	return 1
}
