package cache

import (
	"context"
	"fmt"
)

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNull  = "null"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendFile, BackendRedis, BackendMongo, BackendNull}

// Options selects and configures a backend.
type Options struct {
	Backend         string
	Dir             string // file; DefaultDir() when empty
	RedisAddr       string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// Open builds the backend named by opts.Backend. An empty name selects the
// file backend.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendFile:
		dir := opts.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, fmt.Errorf("get cache dir: %w", err)
			}
			dir = d
		}
		c, err := NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, opts.RedisAddr)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendMongo:
		c, err := NewMongoCache(ctx, opts.MongoURI, opts.MongoDatabase, opts.MongoCollection)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendNull:
		return NewNullCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
