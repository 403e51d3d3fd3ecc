package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/abbensid2/alltheplaces/internal/models"
	"github.com/abbensid2/alltheplaces/pkg/config"
	errs "github.com/abbensid2/alltheplaces/pkg/errors"
)

// geoClient is the subset of *redis.Client the sink needs.
type geoClient interface {
	GeoAdd(ctx context.Context, key string, geoLocation ...*redis.GeoLocation) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisSink indexes each record in a geo set and stores its GeoJSON feature
// under "location:<adapter>/<ref>", the member name used in the geo set.
type RedisSink struct {
	client geoClient
	geoKey string
}

// NewRedisSink connects to cfg.RedisAddr and checks the connection.
func NewRedisSink(ctx context.Context, cfg *config.Config) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errs.NewDB("store.NewRedisSink", "could not connect to redis at "+cfg.RedisAddr, err)
	}
	return newRedisSink(client, cfg.RedisGeoKey), nil
}

func newRedisSink(client geoClient, geoKey string) *RedisSink {
	return &RedisSink{client: client, geoKey: geoKey}
}

// MemberKey is the redis key holding the record's JSON.
func MemberKey(adapter string, loc *models.Location) string {
	return "location:" + memberID(adapter, loc)
}

func (s *RedisSink) Write(ctx context.Context, adapter string, loc *models.Location) error {
	const op = "store.RedisSink.Write"
	key := MemberKey(adapter, loc)

	data, err := json.Marshal(loc.ToFeature(adapter))
	if err != nil {
		return fmt.Errorf("encode feature %s: %w", key, err)
	}

	if loc.Lat != nil && loc.Lon != nil {
		if err := s.client.GeoAdd(ctx, s.geoKey, &redis.GeoLocation{
			Name:      key,
			Latitude:  *loc.Lat,
			Longitude: *loc.Lon,
		}).Err(); err != nil {
			return errs.NewDB(op, "failed to add geolocation for "+key, err)
		}
	}

	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return errs.NewDB(op, "failed to set JSON for "+key, err)
	}
	return nil
}

// Ping checks the redis connection.
func (s *RedisSink) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errs.NewDB("store.RedisSink.Ping", "redis ping failed", err)
	}
	return nil
}

func (s *RedisSink) Close() error { return s.client.Close() }
