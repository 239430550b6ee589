package shared

import (
	"testing"
	"time"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("MEMBERSHIP_POLICY", "best-effort")
	t.Setenv("CACHE_TTL_SECONDS", "60")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("WORKER_POLL_MS", "250")
	t.Setenv("WORKER_BATCH", "not-a-number")

	c := Load()
	if c.MembershipPolicy != "best-effort" {
		t.Fatalf("policy: %s", c.MembershipPolicy)
	}
	if c.CacheTTL != time.Minute || c.RateLimitRPS != 2.5 || c.WorkerPoll != 250*time.Millisecond {
		t.Fatalf("overrides: %+v", c)
	}
	if c.WorkerBatch != 50 {
		t.Fatalf("bad int should fall back to default, got %d", c.WorkerBatch)
	}
	if c.StoreDriver != "mysql" || !c.CookieSecure || c.AccessTokenTTL != 48*time.Hour {
		t.Fatalf("defaults: %+v", c)
	}
}

func TestLoad_DevDisablesSecureCookies(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("COOKIE_SECURE", "")
	if Load().CookieSecure {
		t.Fatalf("dev should not require secure cookies")
	}
}
