package eventbus

import (
	"context"
	"fmt"

	"carmarket-backend/internal/domain/events"

	"gorm.io/gorm"
)

// HandlerFunc handles one concrete event type.
type HandlerFunc[E events.Event] func(ctx context.Context, tx *gorm.DB, ev E) error

type typedListener[E events.Event] struct {
	name string
	kind events.Kind
	fn   HandlerFunc[E]
}

// On builds a Listener for event type E. The kind comes from E's zero value.
func On[E events.Event](name string, fn HandlerFunc[E]) Listener {
	var zero E
	return &typedListener[E]{name: name, kind: zero.Kind(), fn: fn}
}

func (l *typedListener[E]) Name() string      { return l.name }
func (l *typedListener[E]) Kind() events.Kind { return l.kind }

func (l *typedListener[E]) Handle(ctx context.Context, tx *gorm.DB, ev events.Event) error {
	typed, ok := ev.(E)
	if !ok {
		return fmt.Errorf("listener %s: unexpected event type %T", l.name, ev)
	}
	return l.fn(ctx, tx, typed)
}

// ForKind builds a Listener for kind that receives the event through the Event interface.
// Use it for listeners that treat every kind the same way.
func ForKind(name string, kind events.Kind, fn HandlerFunc[events.Event]) Listener {
	return &typedListener[events.Event]{name: name, kind: kind, fn: fn}
}
