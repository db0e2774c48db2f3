// README: CLI that prices a route between two catalog stations and prints the breakdown.
package main

import (
    "context"
    "encoding/json"
    "flag"
    "fmt"
    "log"
    "os"
    "time"

    "travellite/internal/modules/pricing"
    "travellite/internal/modules/station"
    "travellite/internal/types"
)

func main() {
    var (
        stationsFile = flag.String("stations", envOrDefault("TL_STATIONS_FILE", "data/stations.yaml"), "station seed YAML")
        from         = flag.String("from", "", "source station id")
        to           = flag.String("to", "", "destination station id")
        at           = flag.String("at", "", "pickup time, RFC3339 (default now)")
        tier         = flag.String("tier", string(pricing.TierNew), "user tier: new, returning, premium")
        prior        = flag.Int("prior", 0, "prior booking count")
        asJSON       = flag.Bool("json", false, "print the quote as JSON")
    )
    flag.Parse()

    if *from == "" || *to == "" {
        flag.Usage()
        os.Exit(2)
    }

    pickup := time.Now()
    if *at != "" {
        t, err := time.Parse(time.RFC3339, *at)
        if err != nil {
            log.Fatalf("invalid -at: %v", err)
        }
        pickup = t
    }

    catalog, err := station.LoadYAML(*stationsFile)
    if err != nil {
        log.Fatal(err)
    }
    svc := pricing.NewService(station.NewService(catalog, nil))

    rq, err := svc.EstimateRoute(context.Background(), pricing.RouteRequest{
        SourceStationID:      types.ID(*from),
        DestinationStationID: types.ID(*to),
        PickupTime:           pickup,
        UserTier:             pricing.UserTier(*tier),
        PriorBookingCount:    *prior,
    })
    if err != nil {
        log.Fatalf("quote: %v", err)
    }

    if *asJSON {
        enc := json.NewEncoder(os.Stdout)
        enc.SetIndent("", "  ")
        if err := enc.Encode(rq); err != nil {
            log.Fatal(err)
        }
        return
    }
    printQuote(rq)
}

func printQuote(rq pricing.RouteQuote) {
    q := rq.Quote
    fmt.Printf("%s (%s) -> %s (%s): %.2f km\n", rq.Source.Name, rq.Source.Type, rq.Destination.Name, rq.Destination.Type, rq.DistanceKm)
    fmt.Printf("  %-22s %s\n", "base", q.BasePrice)
    fmt.Printf("  %-22s %s\n", "distance", q.DistancePrice)
    fmt.Printf("  %-22s %s\n", "subtotal", q.Subtotal)
    fmt.Printf("  %-22s x%.2f x%.2f x%.2f\n", "station/distance/time", q.StationMultiplier.Float(), q.DistanceMultiplier.Float(), q.TimeMultiplier.Float())
    fmt.Printf("  %-22s %s\n", "adjusted", q.AdjustedPrice)
    fmt.Printf("  %-22s %s\n", "service fees", q.Fees.Total)
    kind := q.Discount.Type
    if kind == "" {
        kind = "none"
    }
    fmt.Printf("  %-22s -%s\n", fmt.Sprintf("discount (%s %d%%)", kind, q.Discount.Percentage), q.Discount.Amount)
    fmt.Printf("  %-22s %s\n", "gst", q.Taxes.GST)
    fmt.Printf("  %-22s %s\n", "service tax", q.Taxes.ServiceTax)
    if q.UnclampedTotal != q.Total {
        fmt.Printf("  %-22s %s\n", "unclamped", q.UnclampedTotal)
    }
    fmt.Printf("  %-22s %s\n", "total", q.Total)
}

func envOrDefault(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}
