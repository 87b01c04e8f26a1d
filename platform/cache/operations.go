package cache

import (
	"github.com/gomodule/redigo/redis"
)

func Del(keys []string, conn redis.Conn) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := conn.Do("DEL", redis.Args{}.AddFlat(keys)...)
	return err
}

func HSET(key string, field string, value interface{}, conn redis.Conn) error {
	_, err := conn.Do("HSET", key, field, value)
	return err
}

func HGET(key string, field string, conn redis.Conn) (string, error) {
	return redis.String(conn.Do("HGET", key, field))
}

func Publish(channel string, message []byte, conn redis.Conn) error {
	_, err := conn.Do("PUBLISH", channel, message)
	return err
}

// RPUSH appends values and trims the list to its newest max entries.
func RPUSH(key string, values []interface{}, max int, conn redis.Conn) error {
	if _, err := conn.Do("RPUSH", redis.Args{}.Add(key).AddFlat(values)...); err != nil {
		return err
	}
	_, err := conn.Do("LTRIM", key, -max, -1)
	return err
}

func LLEN(key string, conn redis.Conn) (int, error) {
	return redis.Int(conn.Do("LLEN", key))
}

func LGET(key string, conn redis.Conn) ([][]byte, error) {
	n, err := LLEN(key, conn)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return redis.ByteSlices(conn.Do("LRANGE", key, 0, n-1))
}
