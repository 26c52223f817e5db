package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"rentora/internal/app/bus"
	"rentora/internal/domain/shared/clock"
)

// IdempotentCommand is replayed from the store when its key was seen before.
type IdempotentCommand interface {
	bus.Message
	IdempotencyKey() string
	ResultPrototype() any // pointer matching the handler result type
}

type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

type IdempotencyOptions struct {
	Codec ResultCodec
	// TTL bounds how long a key is honored; zero keeps records forever.
	TTL   time.Duration
	Clock clock.Clock
}

// Idempotency stores successful results by key. Failed commands are not recorded,
// so a client may retry the same key after fixing its request.
func Idempotency(store IdempotencyStore, opts IdempotencyOptions) bus.Middleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	codec := opts.Codec
	if codec == nil {
		codec = JSONResultCodec{}
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.System{}
	}
	return func(next bus.Bus) bus.Bus {
		return bus.Func(func(ctx context.Context, msg bus.Message) (any, error) {
			cmd, ok := msg.(IdempotentCommand)
			if !ok || cmd.IdempotencyKey() == "" {
				return next.Dispatch(ctx, msg)
			}
			key := cmd.Key() + ":" + cmd.IdempotencyKey()
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found && (opts.TTL <= 0 || clk.Now().Sub(rec.OccurredAt) < opts.TTL) {
				proto := cmd.ResultPrototype()
				if proto == nil {
					return nil, errMissingPrototype
				}
				if err := codec.Decode(rec.Payload, proto); err != nil {
					return nil, err
				}
				return normalizePrototype(proto), nil
			}

			result, err := next.Dispatch(ctx, msg)
			if err != nil {
				return nil, err
			}
			payload, err := codec.Encode(result)
			if err != nil {
				return nil, err
			}
			if err := store.Save(ctx, IdempotencyRecord{Key: key, Payload: payload, OccurredAt: clk.Now().UTC()}); err != nil {
				return nil, err
			}
			return result, nil
		})
	}
}

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}
