package bus

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Message is a command or query routed by key.
type Message interface {
	Key() string
}

type Handler[M Message, R any] interface {
	Handle(ctx context.Context, msg M) (R, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[M Message, R any] func(ctx context.Context, msg M) (R, error)

func (f HandlerFunc[M, R]) Handle(ctx context.Context, msg M) (R, error) {
	return f(ctx, msg)
}

type Bus interface {
	Dispatch(ctx context.Context, msg Message) (any, error)
}

// Func lets middleware wrap a bus without declaring a type per wrapper.
type Func func(ctx context.Context, msg Message) (any, error)

func (f Func) Dispatch(ctx context.Context, msg Message) (any, error) {
	return f(ctx, msg)
}

var (
	ErrHandlerNotFound = errors.New("bus: handler not found")
	ErrInvalidMessage  = errors.New("bus: invalid message for handler")
	ErrResultType      = errors.New("bus: result type mismatch")
	ErrNilBus          = errors.New("bus: nil bus")
	ErrDuplicateKey    = errors.New("bus: key already registered")
)

type route func(ctx context.Context, msg Message) (any, error)

// Registry is the terminal bus: it looks up the handler registered for a key.
type Registry struct {
	name   string
	routes map[string]route
}

// NewRegistry creates an empty registry; name only shows up in errors.
func NewRegistry(name string) *Registry {
	return &Registry{name: name, routes: make(map[string]route)}
}

func (r *Registry) Dispatch(ctx context.Context, msg Message) (any, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrInvalidMessage)
	}
	h, ok := r.routes[msg.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrHandlerNotFound, r.name, msg.Key())
	}
	return h(ctx, msg)
}

// Keys lists registered keys in order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.routes))
	for k := range r.routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Register attaches a typed handler. It panics on empty or duplicate keys since
// wiring mistakes should fail at startup.
func Register[M Message, R any](r *Registry, key string, handler Handler[M, R]) {
	if r == nil {
		panic("bus: nil registry")
	}
	if key == "" {
		panic("bus: empty key registration")
	}
	if _, exists := r.routes[key]; exists {
		panic(fmt.Sprintf("%v: %s", ErrDuplicateKey, key))
	}
	r.routes[key] = func(ctx context.Context, raw Message) (any, error) {
		msg, ok := raw.(M)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidMessage, key)
		}
		return handler.Handle(ctx, msg)
	}
}

// Dispatch sends msg through b and asserts the result type.
func Dispatch[M Message, R any](ctx context.Context, b Bus, msg M) (R, error) {
	var zero R
	if b == nil {
		return zero, ErrNilBus
	}
	res, err := b.Dispatch(ctx, msg)
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	value, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T", ErrResultType, msg.Key(), res)
	}
	return value, nil
}

// Middleware wraps a bus with cross-cutting behavior.
type Middleware func(next Bus) Bus

// Chain applies mws around base, outermost first.
func Chain(base Bus, mws ...Middleware) Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}
