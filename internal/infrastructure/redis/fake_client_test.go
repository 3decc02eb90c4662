package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type published struct {
	channel string
	payload []byte
}

// fakeClient implementa Client en memoria.
type fakeClient struct {
	mu        sync.Mutex
	data      map[string]string
	ttls      map[string]time.Duration
	published []published
	gets      int
	failGet   error
	failPub   error
}

func newFakeClient() *fakeClient {
	return &fakeClient{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeClient) Get(_ context.Context, key string) *goredis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.failGet != nil {
		return goredis.NewStringResult("", f.failGet)
	}
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeClient) Set(_ context.Context, key string, value interface{}, exp time.Duration) *goredis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	default:
		return goredis.NewStatusResult("", errors.New("tipo no soportado"))
	}
	f.ttls[key] = exp
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func (f *fakeClient) Publish(_ context.Context, channel string, message interface{}) *goredis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPub != nil {
		return goredis.NewIntResult(0, f.failPub)
	}
	b, _ := message.([]byte)
	f.published = append(f.published, published{channel: channel, payload: b})
	return goredis.NewIntResult(1, nil)
}
