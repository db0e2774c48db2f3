// README: Smoke/benchmark runner; executes HTTP, DB, Redis and throughput checks against a running API.
package main

import (
    "context"
    "flag"
    "fmt"
    "os"
    "strconv"
    "strings"
    "time"
)

func main() {
    cfg := loadConfig()

    ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
    defer cancel()

    results := NewRunner(cfg).RunAll(ctx)

    tally := map[string]int{}
    var failed []string
    for _, r := range results {
        tally[r.Status]++
        if r.Status == statusFail {
            failed = append(failed, r.Name)
        }
    }
    fmt.Println("\n== Summary ==")
    fmt.Printf("PASS=%d FAIL=%d SKIP=%d\n", tally[statusPass], tally[statusFail], tally[statusSkip])
    for _, name := range failed {
        fmt.Printf("  failed: %s\n", name)
    }

    if len(failed) > 0 || (cfg.Strict && tally[statusSkip] > 0) {
        os.Exit(1)
    }
}

type Config struct {
    BaseURL        string
    DSN            string
    RedisAddr      string
    JWTSecret      string
    MigrationPath  string
    ApplyMigration bool
    Strict         bool
    Timeout        time.Duration
    Concurrency    int
    Duration       time.Duration
    Only           string
}

func loadConfig() Config {
    var cfg Config
    flag.StringVar(&cfg.BaseURL, "base-url", envOrDefault("TL_BENCH_BASE_URL", "http://localhost:8080"), "API base URL")
    flag.StringVar(&cfg.DSN, "dsn", os.Getenv("TL_DB_DSN"), "Postgres DSN (empty skips DB checks)")
    flag.StringVar(&cfg.RedisAddr, "redis", os.Getenv("TL_REDIS_ADDR"), "Redis address (empty skips Redis checks)")
    flag.StringVar(&cfg.JWTSecret, "jwt-secret", os.Getenv("TL_JWT_SECRET"), "HS256 secret used to mint test tokens")
    flag.StringVar(&cfg.MigrationPath, "migration", envOrDefault("TL_BENCH_MIGRATION", "migrations/0001_init.sql"), "Migration SQL path")
    flag.BoolVar(&cfg.ApplyMigration, "apply-migration", envOrDefaultBool("TL_BENCH_APPLY_MIGRATION", false), "Apply migration SQL before tests")
    flag.BoolVar(&cfg.Strict, "strict", envOrDefaultBool("TL_BENCH_STRICT", false), "Fail on skipped checks")
    flag.DurationVar(&cfg.Timeout, "timeout", envOrDefaultDuration("TL_BENCH_TIMEOUT", 60*time.Second), "Total timeout")
    flag.IntVar(&cfg.Concurrency, "concurrency", envOrDefaultInt("TL_BENCH_CONCURRENCY", 20), "Concurrency for race and perf checks")
    flag.DurationVar(&cfg.Duration, "duration", envOrDefaultDuration("TL_BENCH_DURATION", 10*time.Second), "Duration for perf checks")
    flag.StringVar(&cfg.Only, "run", "", "Only run cases whose name contains this substring")
    flag.Parse()
    cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
    return cfg
}

func envOrDefault(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func envOrDefaultBool(key string, def bool) bool {
    if v := os.Getenv(key); v != "" {
        v = strings.ToLower(v)
        return v == "1" || v == "true" || v == "yes"
    }
    return def
}

func envOrDefaultInt(key string, def int) int {
    if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
        return n
    }
    return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
    if v := os.Getenv(key); v != "" {
        if d, err := time.ParseDuration(v); err == nil {
            return d
        }
    }
    return def
}
