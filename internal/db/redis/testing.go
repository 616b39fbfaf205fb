package redis

import "github.com/redis/rueidis"

// NewStoreForTest wraps an existing rueidis client, usually a
// rueidis/mock, so tests can drive Store without a live server.
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c}
}
