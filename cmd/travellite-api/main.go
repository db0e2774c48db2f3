// README: Entry point; loads config, wires stores and services, starts the HTTP server.
package main

import (
    "context"
    "log"
    "os"
    "os/signal"
    "syscall"

    "travellite/internal/config"
    httptransport "travellite/internal/http"
    "travellite/internal/infra"
    "travellite/internal/modules/booking"
    "travellite/internal/modules/pricing"
    "travellite/internal/modules/station"
)

func main() {
    cfg, err := config.Load()
    if err != nil {
        log.Fatal(err)
    }

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    verifier, err := newVerifier(ctx, cfg)
    if err != nil {
        log.Fatalf("auth init: %v", err)
    }

    seed, err := station.LoadYAML(cfg.Stations.File)
    if err != nil {
        log.Fatal(err)
    }

    var (
        source   station.Source     = seed
        bookings booking.Repository = booking.NewMemoryStore()
    )
    if cfg.Store == config.StorePostgres {
        dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
        if err != nil {
            log.Fatal(err)
        }
        defer dbPool.Close()

        stationStore := station.NewStore(dbPool)
        if err := seedStations(ctx, seed, stationStore); err != nil {
            log.Fatal(err)
        }
        source = stationStore
        bookings = booking.NewStore(dbPool)
    }

    var ranker station.Ranker
    if cfg.Redis.Addr != "" {
        redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
        if err != nil {
            log.Fatal(err)
        }
        defer redisClient.Close()
        ranker = station.NewPopularity(redisClient)
    }
    stationSvc := station.NewService(source, ranker)

    pricingSvc := pricing.NewService(stationSvc)

    var publisher booking.Publisher
    if len(cfg.Kafka.Brokers) > 0 {
        producer := infra.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
        defer producer.Close()
        publisher = booking.NewEventPublisher(producer)
    }
    bookingSvc := booking.NewService(bookings, stationSvc, publisher, stationSvc)

    log.Printf("[MAIN] starting addr=%s store=%s auth=%s kafka=%t redis=%t",
        cfg.HTTP.Addr, cfg.Store, cfg.Auth.Mode, publisher != nil, ranker != nil)

    server := httptransport.NewServer(cfg.HTTP.Addr, httptransport.ServerDeps{
        Stations: stationSvc,
        Pricing:  pricingSvc,
        Bookings: bookingSvc,
        Verifier: verifier,
    })
    if err := server.Run(ctx); err != nil {
        log.Fatal(err)
    }
}

func newVerifier(ctx context.Context, cfg config.Config) (infra.TokenVerifier, error) {
    if cfg.Auth.Mode == config.AuthFirebase {
        return infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
    }
    return infra.NewJWTVerifier(cfg.Auth.JWTSecret)
}

// seedStations upserts the YAML catalog into Postgres so both sources agree.
func seedStations(ctx context.Context, seed *station.MemoryStore, store *station.Store) error {
    all, err := seed.List(ctx, "")
    if err != nil {
        return err
    }
    for _, st := range all {
        if err := store.Upsert(ctx, st); err != nil {
            return err
        }
    }
    log.Printf("[MAIN] seeded stations count=%d", len(all))
    return nil
}
