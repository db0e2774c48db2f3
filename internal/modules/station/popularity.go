// README: Live station popularity kept in a Redis sorted set.
package station

import (
	"context"

	"github.com/redis/go-redis/v9"

	"travellite/internal/types"
)

const popularityKey = "stations:popularity"

type Popularity struct {
	redis *redis.Client
}

func NewPopularity(redis *redis.Client) *Popularity {
	return &Popularity{redis: redis}
}

// Record counts one booking touching the station.
func (p *Popularity) Record(ctx context.Context, id types.ID) error {
	return p.redis.ZIncrBy(ctx, popularityKey, 1, string(id)).Err()
}

// Scores returns the live booking count per station.
func (p *Popularity) Scores(ctx context.Context) (map[types.ID]int64, error) {
	res, err := p.redis.ZRevRangeWithScores(ctx, popularityKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[types.ID]int64, len(res))
	for _, z := range res {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		out[types.ID(member)] = int64(z.Score)
	}
	return out, nil
}
