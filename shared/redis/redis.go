package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options configures the redis client
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Client wraps the go-redis client for the application's key/value needs
type Client struct {
	client *redis.Client
}

// NewClient creates a new redis client
func NewClient(opts Options) *Client {
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &Client{client: client}
}

// Ping checks connectivity to the redis server
func (r *Client) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Set stores a value with an expiration
func (r *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value by key
func (r *Client) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

// Del removes a key
func (r *Client) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Close releases the underlying connection pool
func (r *Client) Close() error {
	return r.client.Close()
}

const revokedPrefix = "revoked:"

// IsRevoked reports whether a token has been inserted into the revocation
// list. Implements the jwt.RevocationStore interface.
func (r *Client) IsRevoked(ctx context.Context, token string) (bool, error) {
	_, err := r.client.Get(ctx, revokedPrefix+token).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Revoke marks a token invalid for the given TTL. Entries expire on their
// own once the token itself would have expired.
func (r *Client) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	return r.client.Set(ctx, revokedPrefix+token, "revoked", ttl).Err()
}
