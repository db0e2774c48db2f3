// README: Bench cases for the travellite API; env, schema, HTTP flow, payment race and quote throughput.
package main

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "os"
    "regexp"
    "strings"
    "sync"
    "time"

    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/redis/go-redis/v9"

    "travellite/internal/infra"
)

const (
    statusPass = "PASS"
    statusFail = "FAIL"
    statusSkip = "SKIP"
)

type Runner struct {
    cfg   Config
    httpc *http.Client
    db    *pgxpool.Pool
    redis *redis.Client

    // bookingID is set by the create case and consumed by the payment race.
    bookingID string
}

type Result struct {
    Name    string
    Status  string
    Latency time.Duration
    Note    string
}

type TestCase struct {
    Name string
    Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
    return &Runner{
        cfg:   cfg,
        httpc: &http.Client{Timeout: 10 * time.Second},
    }
}

func (r *Runner) RunAll(ctx context.Context) []Result {
    if r.cfg.DSN != "" {
        if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
            r.db = db
        }
    }
    if r.cfg.RedisAddr != "" {
        r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
    }

    tests := r.cases()
    results := make([]Result, 0, len(tests))

    for _, tc := range tests {
        if r.cfg.Only != "" && !strings.Contains(strings.ToLower(tc.Name), strings.ToLower(r.cfg.Only)) {
            continue
        }
        res := tc.Run(ctx, r)
        res.Name = tc.Name
        results = append(results, res)
        fmt.Printf("%-5s %s", res.Status, tc.Name)
        if res.Latency > 0 {
            fmt.Printf(" (%s)", res.Latency)
        }
        if res.Note != "" {
            fmt.Printf(" - %s", res.Note)
        }
        fmt.Println()
    }

    if r.db != nil {
        r.db.Close()
    }
    if r.redis != nil {
        _ = r.redis.Close()
    }

    return results
}

func (r *Runner) cases() []TestCase {
    base := r.cfg.BaseURL
    return []TestCase{
        {Name: "Env: Postgres connect", Run: checkPostgres},
        {Name: "Env: Redis connect", Run: checkRedis},
        {Name: "Migration: apply (optional)", Run: applyMigration},
        {Name: "Migration: tables exist", Run: checkTables},
        {
            Name: "API: health",
            Run: func(ctx context.Context, r *Runner) Result {
                return r.expect(ctx, http.MethodGet, base+"/health", "", nil, http.StatusOK)
            },
        },
        {
            Name: "API: station search",
            Run: func(ctx context.Context, r *Runner) Result {
                return r.expect(ctx, http.MethodGet, base+"/api/stations?q=delhi&limit=5", "", nil, http.StatusOK)
            },
        },
        {
            Name: "API: popular stations",
            Run: func(ctx context.Context, r *Runner) Result {
                return r.expect(ctx, http.MethodGet, base+"/api/stations/popular?limit=3", "", nil, http.StatusOK)
            },
        },
        {
            Name: "API: quote",
            Run: func(ctx context.Context, r *Runner) Result {
                return r.expect(ctx, http.MethodPost, base+"/api/quotes", "", quotePayload(), http.StatusOK)
            },
        },
        {
            Name: "API: quote rejects same station",
            Run: func(ctx context.Context, r *Runner) Result {
                body := map[string]any{"source_station_id": "ndls", "destination_station_id": "ndls"}
                return r.expect(ctx, http.MethodPost, base+"/api/quotes", "", body, http.StatusBadRequest)
            },
        },
        {
            Name: "API: bookings require auth",
            Run: func(ctx context.Context, r *Runner) Result {
                return r.expect(ctx, http.MethodGet, base+"/api/bookings", "", nil, http.StatusUnauthorized)
            },
        },
        {Name: "API: create booking", Run: createBooking},
        {Name: "Race: concurrent payment confirm", Run: concurrentPayment},
        {
            Name: "Perf: quote throughput",
            Run: func(ctx context.Context, r *Runner) Result {
                return perfLoad(ctx, r, base+"/api/quotes", quotePayload())
            },
        },
    }
}

func checkPostgres(ctx context.Context, r *Runner) Result {
    if r.db == nil {
        return Result{Status: statusSkip, Note: "db not configured"}
    }
    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()
    if err := r.db.Ping(ctx); err != nil {
        return Result{Status: statusFail, Note: err.Error()}
    }
    return Result{Status: statusPass}
}

func checkRedis(ctx context.Context, r *Runner) Result {
    if r.redis == nil {
        return Result{Status: statusSkip, Note: "redis not configured"}
    }
    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()
    if err := r.redis.Ping(ctx).Err(); err != nil {
        return Result{Status: statusFail, Note: err.Error()}
    }
    return Result{Status: statusPass}
}

func applyMigration(ctx context.Context, r *Runner) Result {
    if !r.cfg.ApplyMigration {
        return Result{Status: statusSkip, Note: "apply-migration=false"}
    }
    if r.db == nil {
        return Result{Status: statusFail, Note: "db not configured"}
    }
    b, err := os.ReadFile(r.cfg.MigrationPath)
    if err != nil {
        return Result{Status: statusFail, Note: err.Error()}
    }
    for _, stmt := range splitSQL(string(b)) {
        if _, err := r.db.Exec(ctx, stmt); err != nil {
            return Result{Status: statusFail, Note: err.Error()}
        }
    }
    return Result{Status: statusPass}
}

func checkTables(ctx context.Context, r *Runner) Result {
    if r.db == nil {
        return Result{Status: statusSkip, Note: "db not configured"}
    }
    tables, err := extractTables(r.cfg.MigrationPath)
    if err != nil {
        return Result{Status: statusFail, Note: err.Error()}
    }
    missing := make([]string, 0)
    for _, t := range tables {
        var exists bool
        err := r.db.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, "public."+t).Scan(&exists)
        if err != nil {
            return Result{Status: statusFail, Note: err.Error()}
        }
        if !exists {
            missing = append(missing, t)
        }
    }
    if len(missing) > 0 {
        return Result{Status: statusFail, Note: "missing tables: " + strings.Join(missing, ",")}
    }
    return Result{Status: statusPass, Note: fmt.Sprintf("tables=%d", len(tables))}
}

func createBooking(ctx context.Context, r *Runner) Result {
    token, ok := r.customerToken()
    if !ok {
        return Result{Status: statusSkip, Note: "jwt-secret not set"}
    }
    status, body, latency, err := r.do(ctx, http.MethodPost, r.cfg.BaseURL+"/api/bookings", token, bookingPayload())
    if err != nil {
        return Result{Status: statusFail, Note: err.Error()}
    }
    if status != http.StatusCreated {
        return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d", status)}
    }
    var created struct {
        ID          string `json:"id"`
        BookingCode string `json:"booking_code"`
    }
    if err := json.Unmarshal(body, &created); err != nil || created.ID == "" {
        return Result{Status: statusFail, Latency: latency, Note: "response has no booking id"}
    }
    r.bookingID = created.ID
    return Result{Status: statusPass, Latency: latency, Note: "code=" + created.BookingCode}
}

// concurrentPayment fires Concurrency confirmations at one pending booking; exactly one may win.
func concurrentPayment(ctx context.Context, r *Runner) Result {
    if r.bookingID == "" {
        return Result{Status: statusSkip, Note: "no booking created"}
    }
    token, _ := r.customerToken()
    url := r.cfg.BaseURL + "/api/bookings/" + r.bookingID + "/payment"
    payload := map[string]any{"payment_method": "upi"}

    var wg sync.WaitGroup
    var mu sync.Mutex
    succ, conflicts := 0, 0
    for i := 0; i < r.cfg.Concurrency; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            status, _, _, err := r.do(ctx, http.MethodPost, url, token, payload)
            if err != nil {
                return
            }
            mu.Lock()
            defer mu.Unlock()
            switch {
            case status >= 200 && status < 300:
                succ++
            case status == http.StatusConflict:
                conflicts++
            }
        }()
    }
    wg.Wait()

    note := fmt.Sprintf("success=%d conflict=%d", succ, conflicts)
    if succ == 1 && succ+conflicts == r.cfg.Concurrency {
        return Result{Status: statusPass, Note: note}
    }
    return Result{Status: statusFail, Note: note}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
    end := time.Now().Add(r.cfg.Duration)
    var count, errCount int64
    var mu sync.Mutex
    var wg sync.WaitGroup

    for i := 0; i < r.cfg.Concurrency; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for time.Now().Before(end) && ctx.Err() == nil {
                status, _, _, err := r.do(ctx, http.MethodPost, url, "", payload)
                mu.Lock()
                if err != nil || status != http.StatusOK {
                    errCount++
                } else {
                    count++
                }
                mu.Unlock()
            }
        }()
    }
    wg.Wait()

    if count == 0 {
        return Result{Status: statusFail, Note: "no requests completed"}
    }
    rps := float64(count) / r.cfg.Duration.Seconds()
    return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func (r *Runner) expect(ctx context.Context, method, url, token string, body any, want int) Result {
    status, _, latency, err := r.do(ctx, method, url, token, body)
    if err != nil {
        return Result{Status: statusFail, Note: err.Error()}
    }
    note := fmt.Sprintf("status=%d", status)
    if status != want {
        return Result{Status: statusFail, Latency: latency, Note: note}
    }
    return Result{Status: statusPass, Latency: latency, Note: note}
}

func (r *Runner) do(ctx context.Context, method, url, token string, body any) (int, []byte, time.Duration, error) {
    var reader io.Reader
    if body != nil {
        b, err := json.Marshal(body)
        if err != nil {
            return 0, nil, 0, err
        }
        reader = bytes.NewReader(b)
    }
    req, err := http.NewRequestWithContext(ctx, method, url, reader)
    if err != nil {
        return 0, nil, 0, err
    }
    req.Header.Set("Content-Type", "application/json")
    if token != "" {
        req.Header.Set("Authorization", "Bearer "+token)
    }
    start := time.Now()
    resp, err := r.httpc.Do(req)
    if err != nil {
        return 0, nil, 0, err
    }
    defer resp.Body.Close()
    out, err := io.ReadAll(resp.Body)
    return resp.StatusCode, out, time.Since(start), err
}

func (r *Runner) customerToken() (string, bool) {
    if r.cfg.JWTSecret == "" {
        return "", false
    }
    token, err := infra.SignJWT(r.cfg.JWTSecret, "bench-customer", nil, time.Hour)
    if err != nil {
        return "", false
    }
    return token, true
}

func quotePayload() map[string]any {
    return map[string]any{
        "source_station_id":      "ndls",
        "destination_station_id": "csmt",
        "user_tier":              "new",
    }
}

func bookingPayload() map[string]any {
    photos := make([]map[string]string, 0, 4)
    for _, angle := range []string{"front", "back", "left", "right"} {
        photos = append(photos, map[string]string{"angle": angle, "url": "https://img.example/" + angle + ".jpg"})
    }
    return map[string]any{
        "source_station_id":      "ndls",
        "destination_station_id": "csmt",
        "contact_info":           map[string]string{"name": "Bench", "phone": "+919800000000"},
        "luggage_photos":         photos,
    }
}

func extractTables(path string) ([]string, error) {
    b, err := os.ReadFile(path)
    if err != nil {
        return nil, err
    }
    re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
    matches := re.FindAllStringSubmatch(string(b), -1)
    tables := make([]string, 0, len(matches))
    for _, m := range matches {
        tables = append(tables, m[1])
    }
    return tables, nil
}

func splitSQL(sql string) []string {
    lines := strings.Split(sql, "\n")
    filtered := make([]string, 0, len(lines))
    for _, line := range lines {
        l := strings.TrimSpace(line)
        if strings.HasPrefix(l, "--") || l == "" {
            continue
        }
        filtered = append(filtered, line)
    }
    parts := strings.Split(strings.Join(filtered, "\n"), ";")
    stmts := make([]string, 0, len(parts))
    for _, p := range parts {
        if s := strings.TrimSpace(p); s != "" {
            stmts = append(stmts, s)
        }
    }
    return stmts
}
