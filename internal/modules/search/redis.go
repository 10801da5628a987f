// README: Redis index backend; hashes per listing plus a lex zset for completions.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"foodbridge/internal/types"
)

const (
	idsKey     = "search:listings"
	suggestKey = "search:suggest"
	hashPrefix = "search:listing:%d"

	// suggestSep joins lowercase sort key, display name and id inside one
	// zset member, so prefix lookups stay a single ZRANGEBYLEX.
	suggestSep = "\x1f"
)

type RedisIndex struct {
	client *redis.Client
}

func NewRedisIndex(client *redis.Client) *RedisIndex {
	return &RedisIndex{client: client}
}

func (r *RedisIndex) Sync(ctx context.Context, e Entry) error {
	key := hashKey(e.ID)

	// A rename must drop the old completion member, so read it first.
	oldName, err := r.client.HGet(ctx, key, "name").Result()
	if err != nil && err != redis.Nil {
		return wrapIndexErr(err)
	}

	pipe := r.client.Pipeline()
	if oldName != "" && oldName != e.Name {
		pipe.ZRem(ctx, suggestKey, suggestMember(oldName, e.ID))
	}
	pipe.HSet(ctx, key, map[string]interface{}{
		"name":        e.Name,
		"location":    e.PickupLocation,
		"quantity":    e.Quantity,
		"expiry_date": e.ExpiryDate.UTC().Format(time.RFC3339),
		"donor_id":    int64(e.DonorID),
	})
	pipe.SAdd(ctx, idsKey, int64(e.ID))
	pipe.ZAdd(ctx, suggestKey, redis.Z{Score: 0, Member: suggestMember(e.Name, e.ID)})
	_, err = pipe.Exec(ctx)
	return wrapIndexErr(err)
}

func (r *RedisIndex) Remove(ctx context.Context, id types.ID) error {
	name, err := r.client.HGet(ctx, hashKey(id), "name").Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return wrapIndexErr(err)
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, hashKey(id))
	pipe.SRem(ctx, idsKey, int64(id))
	pipe.ZRem(ctx, suggestKey, suggestMember(name, id))
	_, err = pipe.Exec(ctx)
	return wrapIndexErr(err)
}

func (r *RedisIndex) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || limit <= 0 {
		return nil, nil
	}
	members, err := r.client.ZRangeByLex(ctx, suggestKey, &redis.ZRangeBy{
		Min:   "[" + prefix,
		Max:   "[" + prefix + "\xff",
		Count: int64(limit * 10),
	}).Result()
	if err != nil {
		return nil, wrapIndexErr(err)
	}

	seen := make(map[string]struct{})
	var names []string
	for _, m := range members {
		parts := strings.SplitN(m, suggestSep, 3)
		if len(parts) != 3 {
			continue
		}
		name := parts[1]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
		if len(names) == limit {
			break
		}
	}
	return names, nil
}

func (r *RedisIndex) Search(ctx context.Context, c Criteria) ([]Entry, error) {
	ids, err := r.client.SMembers(ctx, idsKey).Result()
	if err != nil {
		return nil, wrapIndexErr(err)
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, raw := range ids {
		id, convErr := strconv.ParseInt(raw, 10, 64)
		if convErr != nil {
			continue
		}
		cmds[i] = pipe.HGetAll(ctx, hashKey(types.ID(id)))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, wrapIndexErr(err)
	}

	var entries []Entry
	for i, cmd := range cmds {
		if cmd == nil {
			continue
		}
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		id, _ := strconv.ParseInt(ids[i], 10, 64)
		entries = append(entries, entryFromHash(types.ID(id), fields))
	}
	return evaluate(entries, c), nil
}

func entryFromHash(id types.ID, fields map[string]string) Entry {
	quantity, _ := strconv.Atoi(fields["quantity"])
	donorID, _ := strconv.ParseInt(fields["donor_id"], 10, 64)
	expiry, _ := time.Parse(time.RFC3339, fields["expiry_date"])
	return Entry{
		ID:             id,
		Name:           fields["name"],
		PickupLocation: fields["location"],
		Quantity:       quantity,
		ExpiryDate:     expiry,
		DonorID:        types.ID(donorID),
	}
}

func hashKey(id types.ID) string {
	return fmt.Sprintf(hashPrefix, int64(id))
}

func suggestMember(name string, id types.ID) string {
	return strings.ToLower(name) + suggestSep + name + suggestSep + strconv.FormatInt(int64(id), 10)
}

func wrapIndexErr(err error) error {
	if err == nil || err == redis.Nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
}
