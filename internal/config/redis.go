package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisConfig selects a direct, sentinel or cluster deployment.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"`
	DB                 int      `env:"DB"                   envDefault:"0"`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	SentinelNodes      []string `env:"SENTINEL_NODES"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"`
}

// Sanitize trims node lists and drops blanks.
func (r *RedisConfig) Sanitize() {
	r.URI = strings.TrimSpace(r.URI)
	r.SentinelNodes = normalizeAddrs(r.SentinelNodes)
	r.ClusterNodes = normalizeAddrs(r.ClusterNodes)
}

// NewClient builds the client for the configured deployment and returns a
// description of its target for logging. Timeouts are enforced per call
// through the request context.
//
//nolint:ireturn // the store and throttle accept any deployment shape.
func (r RedisConfig) NewClient() (redis.UniversalClient, string, error) {
	switch {
	case r.UseCluster:
		if len(r.ClusterNodes) == 0 {
			return nil, "", errors.New("redis cluster configuration requires at least one address")
		}
		client := redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:                 r.ClusterNodes,
			Password:              r.Password,
			ContextTimeoutEnabled: true,
		})
		return client, "cluster:" + strings.Join(r.ClusterNodes, ","), nil
	case r.UseSentinel:
		if len(r.SentinelNodes) == 0 {
			return nil, "", errors.New("redis sentinel configuration requires at least one sentinel node")
		}
		client := redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:            r.SentinelMasterName,
			SentinelAddrs:         r.SentinelNodes,
			Password:              r.Password,
			SentinelPassword:      r.SentinelPassword,
			DB:                    r.DB,
			ContextTimeoutEnabled: true,
		})
		return client, "sentinel:" + r.SentinelMasterName, nil
	}

	if r.URI == "" {
		return nil, "", errors.New("redis direct configuration requires a URI")
	}
	if strings.HasPrefix(r.URI, "redis://") || strings.HasPrefix(r.URI, "rediss://") {
		opt, err := redis.ParseURL(r.URI)
		if err != nil {
			return nil, "", fmt.Errorf("parse redis url: %w", err)
		}
		opt.ContextTimeoutEnabled = true
		return redis.NewClient(opt), opt.Addr, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:                  r.URI,
		Password:              r.Password,
		DB:                    r.DB,
		ContextTimeoutEnabled: true,
	})
	return client, r.URI, nil
}

func normalizeAddrs(addrs []string) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
