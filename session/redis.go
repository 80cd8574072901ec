package session

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/lora-edge/node-stack/lorawan"
	"github.com/pkg/errors"
)

// RedisStore persists Counters in Redis, keyed per DevAddr, so an ABP
// session's frame counters survive a process restart. It is the optional
// infrastructure the ABP persistence open question calls for; nothing in
// mac or node requires it.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps client. prefix namespaces the keys this store
// writes (e.g. "lora:counters:"); an empty prefix is fine for a
// single-tenant deployment.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(devAddr lorawan.DevAddr) string {
	return fmt.Sprintf("%scounters:%s", s.prefix, devAddr.String())
}

// Load reads the persisted counters for devAddr. A missing key is not an
// error: it returns the zero Counters, the same state a brand-new session
// starts with.
func (s *RedisStore) Load(devAddr lorawan.DevAddr) (Counters, error) {
	b, err := s.client.Get(context.Background(), s.key(devAddr)).Bytes()
	if err == redis.Nil {
		return Counters{}, nil
	}
	if err != nil {
		return Counters{}, errors.Wrap(err, "redis get error")
	}
	if len(b) != 8 {
		return Counters{}, errors.New("unexpected counters encoding length")
	}
	return Counters{
		UplinkCounter:   binary.LittleEndian.Uint32(b[0:4]),
		DownlinkCounter: binary.LittleEndian.Uint32(b[4:8]),
	}, nil
}

// Persist writes c for devAddr, overwriting any previously stored value.
func (s *RedisStore) Persist(devAddr lorawan.DevAddr, c Counters) error {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:4], c.UplinkCounter)
	binary.LittleEndian.PutUint32(b[4:8], c.DownlinkCounter)

	if err := s.client.Set(context.Background(), s.key(devAddr), b, 0).Err(); err != nil {
		return errors.Wrap(err, "redis set error")
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
