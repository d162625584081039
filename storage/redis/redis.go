// Package redis implements the redis storage backend: key = path,
// value = blob bytes. The connection-pool-and-Do shape is grounded on
// the container registry's redis cache driver.
package redis

import (
	"context"

	"github.com/gomodule/redigo/redis"

	"github.com/grailbio/sketch/errs"
	"github.com/grailbio/sketch/storage"
)

func init() {
	storage.Register("redis", newFromArgs)
}

// Backend stores blobs as string values in a redis server, keyed by
// path.
type Backend struct {
	Addr string
	pool *redis.Pool
}

// New returns a redis backend connecting to addr ("host:port").
func New(addr string) *Backend {
	return &Backend{
		Addr: addr,
		pool: &redis.Pool{
			Dial: func() (redis.Conn, error) { return redis.Dial("tcp", addr) },
		},
	}
}

func newFromArgs(args map[string]interface{}) (storage.Backend, error) {
	addr, _ := args["addr"].(string)
	if addr == "" {
		return nil, errs.E(errs.InvalidInput, "redis backend requires an \"addr\" arg")
	}
	return New(addr), nil
}

// Save implements storage.Backend.
func (b *Backend) Save(_ context.Context, path string, data []byte) (string, error) {
	conn := b.pool.Get()
	defer conn.Close()
	if _, err := conn.Do("SET", path, data); err != nil {
		return "", errs.E(errs.StorageFailure, "SET %s", path, err)
	}
	return path, nil
}

// Load implements storage.Backend.
func (b *Backend) Load(_ context.Context, path string) ([]byte, error) {
	conn := b.pool.Get()
	defer conn.Close()
	data, err := redis.Bytes(conn.Do("GET", path))
	if err != nil {
		return nil, errs.E(errs.StorageFailure, "GET %s", path, err)
	}
	return data, nil
}

// InitArgs implements storage.Backend.
func (b *Backend) InitArgs() map[string]interface{} {
	return map[string]interface{}{"addr": b.Addr}
}
