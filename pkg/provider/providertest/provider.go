// Package providertest provides a scripted wallet provider for tests.
package providertest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Call records one request issued through the fake.
type Call struct {
	Method string
	Params []any
}

type stub struct {
	result any
	err    error
	fn     func(ctx context.Context, params []any) (any, error)
}

// FakeProvider implements provider.Provider with per-method response scripts.
// Responses for a method are consumed in order; the final response is sticky
// and keeps being returned, which makes polling loops easy to script.
type FakeProvider struct {
	mu        sync.Mutex
	stubs     map[string][]stub
	calls     []Call
	listeners map[int]func(string)
	nextID    int
}

func New() *FakeProvider {
	return &FakeProvider{
		stubs:     make(map[string][]stub),
		listeners: make(map[int]func(string)),
	}
}

// Stub queues a successful response for method. result is marshalled to JSON
// when the request arrives.
func (f *FakeProvider) Stub(method string, result any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stubs[method] = append(f.stubs[method], stub{result: result})
}

// StubError queues a failing response for method.
func (f *FakeProvider) StubError(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stubs[method] = append(f.stubs[method], stub{err: err})
}

// StubFunc queues a response computed per call, for stubs that depend on the
// request params or need to block until the context is cancelled.
func (f *FakeProvider) StubFunc(method string, fn func(ctx context.Context, params []any) (any, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stubs[method] = append(f.stubs[method], stub{fn: fn})
}

// Request implements provider.Provider.
func (f *FakeProvider) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Method: method, Params: params})
	queue := f.stubs[method]
	if len(queue) == 0 {
		f.mu.Unlock()
		return nil, fmt.Errorf("providertest: no stub for method %s", method)
	}
	s := queue[0]
	if len(queue) > 1 {
		f.stubs[method] = queue[1:]
	}
	f.mu.Unlock()

	result, err := s.result, s.err
	if s.fn != nil {
		result, err = s.fn(ctx, params)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

// OnChainChanged implements provider.Provider.
func (f *FakeProvider) OnChainChanged(fn func(hexChainID string)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

// EmitChainChanged delivers a chain-change event to every subscriber.
func (f *FakeProvider) EmitChainChanged(hexChainID string) {
	f.mu.Lock()
	fns := make([]func(string), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(hexChainID)
	}
}

// ListenerCount reports the number of active chain-change subscriptions.
func (f *FakeProvider) ListenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

// Calls returns every recorded request for method, in order.
func (f *FakeProvider) Calls(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, 0)
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}
