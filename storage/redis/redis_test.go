package redis

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/gomodule/redigo/redis"

	"github.com/nathoo/monovoice/storage/storagetest"
)

// fakeConn answers the handful of commands the store issues.
type fakeConn struct {
	mu   *sync.Mutex
	data map[string][]byte
}

func (c *fakeConn) Close() error                      { return nil }
func (c *fakeConn) Err() error                        { return nil }
func (c *fakeConn) Send(string, ...interface{}) error { return nil }
func (c *fakeConn) Flush() error                      { return nil }
func (c *fakeConn) Receive() (interface{}, error)     { return nil, nil }

func (c *fakeConn) Do(cmd string, args ...interface{}) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch cmd {
	case "":
		return nil, nil
	case "PING":
		return "PONG", nil
	case "GET":
		v, ok := c.data[args[0].(string)]
		if !ok {
			return nil, nil
		}
		return append([]byte(nil), v...), nil
	case "SET":
		c.data[args[0].(string)] = append([]byte(nil), args[1].([]byte)...)
		return "OK", nil
	}
	return nil, fmt.Errorf("unexpected command %s", cmd)
}

func newFakePool() *redis.Pool {
	conn := &fakeConn{mu: &sync.Mutex{}, data: map[string][]byte{}}
	return &redis.Pool{
		Dial: func() (redis.Conn, error) { return conn, nil },
	}
}

func TestStore(t *testing.T) {
	s := New(newFakePool())
	defer s.Close()
	storagetest.Run(t, s)
}

func TestOpen_RequiresAddr(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Error("expected error")
	}
}

func TestStore_DialFailure(t *testing.T) {
	s := New(&redis.Pool{
		Dial: func() (redis.Conn, error) { return nil, fmt.Errorf("connection refused") },
	})
	if _, err := s.Load(context.Background(), "game"); err == nil {
		t.Error("expected error when the pool cannot dial")
	}
}
