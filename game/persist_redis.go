package game

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

type RedisStore struct {
	rdclient *redis.Client
}

func NewRedisStore(redisURL string, redisPW string, redisDB int) *RedisStore {
	rdclient := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: redisPW,
		DB:       redisDB,
	})
	return &RedisStore{
		rdclient: rdclient,
	}
}

func (r *RedisStore) get(key string) ([]byte, bool, error) {
	b, err := r.rdclient.Get(context.Background(), key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	} else if err != nil {
		return nil, false, errors.Wrapf(err, "Unable to read %s from redis", key)
	}
	return b, true, nil
}

func (r *RedisStore) LoadTable(tableID string) (*Table, error) {
	b, ok, err := r.get(tableKey(tableID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NotFoundError{Key: tableKey(tableID)}
	}
	table, err := decodeTable(b)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to decode table %s", tableID)
	}
	return table, nil
}

func (r *RedisStore) LoadSeats(tableID string, maxPlayers int) (Seats, error) {
	return loadSeats(tableID, maxPlayers, r.get)
}

func (r *RedisStore) LoadHand(handID string) (*Hand, error) {
	b, ok, err := r.get(handKey(handID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NotFoundError{Key: handKey(handID)}
	}
	hand, err := decodeHand(b)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to decode hand %s", handID)
	}
	return hand, nil
}

// Commit writes all records in one MULTI/EXEC so readers never see half a transition.
func (r *RedisStore) Commit(table *Table, seats Seats, hand *Hand) error {
	ctx := context.Background()
	_, err := r.rdclient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tableKey(table.ID), encodeTable(table), 0)
		for i := range seats {
			pipe.Set(ctx, seatKey(table.ID, i), encodeSeat(&seats[i]), 0)
		}
		if hand != nil {
			pipe.Set(ctx, handKey(hand.ID), encodeHand(hand), 0)
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "Unable to commit table %s", table.ID)
	}
	return nil
}

func (r *RedisStore) RemoveHand(handID string) error {
	err := r.rdclient.Del(context.Background(), handKey(handID)).Err()
	if err != nil {
		return errors.Wrapf(err, "Unable to remove hand %s", handID)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.rdclient.Close()
}
