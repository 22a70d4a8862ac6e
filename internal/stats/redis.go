package stats

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultNamespace prefixes the keys RedisCounters writes.
const DefaultNamespace = "minesweeper:stats"

// RedisCounters keeps running totals and best win times in Redis so that
// several server processes can share them. Totals live in the hash
// <namespace>:counts and best times in the sorted set <namespace>:best.
type RedisCounters struct {
	client      *redis.Client
	countersKey string
	bestKey     string
}

func NewRedisCounters(client *redis.Client, namespace string) *RedisCounters {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &RedisCounters{
		client:      client,
		countersKey: namespace + ":counts",
		bestKey:     namespace + ":best",
	}
}

func (c *RedisCounters) Record(ctx context.Context, r Result) error {
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HIncrBy(ctx, c.countersKey, "played", 1)
		p.HIncrBy(ctx, c.countersKey, string(r.Outcome), 1)
		if r.Outcome == Won {
			// LT only lowers an existing score; new members are always added.
			p.ZAddLT(ctx, c.bestKey, redis.Z{
				Score:  float64(r.Duration().Milliseconds()),
				Member: boardKey(r.Height, r.Width, r.Mines),
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("recording game %s in redis: %w", r.ID, err)
	}
	return nil
}

func (c *RedisCounters) Summary(ctx context.Context) (Summary, error) {
	var sum Summary

	counts, err := c.client.HGetAll(ctx, c.countersKey).Result()
	if err != nil {
		return sum, fmt.Errorf("reading counters: %w", err)
	}
	for field, raw := range counts {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return sum, fmt.Errorf("counter %s: %w", field, err)
		}
		switch Outcome(field) {
		case Won:
			sum.Won = n
		case Lost:
			sum.Lost = n
		case Abandoned:
			sum.Abandoned = n
		default:
			if field == "played" {
				sum.Played = n
			}
		}
	}

	best, err := c.client.ZRangeWithScores(ctx, c.bestKey, 0, -1).Result()
	if err != nil {
		return sum, fmt.Errorf("reading best times: %w", err)
	}
	for _, z := range best {
		member, _ := z.Member.(string)
		var b BestTime
		if _, err := fmt.Sscanf(member, "%dx%dx%d", &b.Height, &b.Width, &b.Mines); err != nil {
			return sum, fmt.Errorf("best time member %q: %w", member, err)
		}
		b.DurationMS = int64(z.Score)
		sum.Best = append(sum.Best, b)
	}
	sortBest(sum.Best)
	return sum, nil
}

func boardKey(height, width, mines int) string {
	return fmt.Sprintf("%dx%dx%d", height, width, mines)
}

func sortBest(b []BestTime) {
	sort.Slice(b, func(i, j int) bool {
		if b[i].Height != b[j].Height {
			return b[i].Height < b[j].Height
		}
		if b[i].Width != b[j].Width {
			return b[i].Width < b[j].Width
		}
		return b[i].Mines < b[j].Mines
	})
}
