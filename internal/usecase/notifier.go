package usecase

import (
	"sync"

	"github.com/rs/zerolog"

	"tradetrack-backend/internal/domain"
)

// Event describes one successful mutation. Consumers that only care
// about a single principal filter on the Principal field.
type Event struct {
	Scope     domain.Scope
	Principal string
}

// Consumer receives change events. Consumers are presentation-side:
// table renderers, chart feeds, websocket pushers.
type Consumer func(Event)

// Notifier is the process-wide broadcast fanning mutations out to
// every registered consumer. Consumers run synchronously in
// registration order; a panicking consumer is logged and skipped so it
// can never starve the others.
type Notifier struct {
	mu        sync.RWMutex
	logger    zerolog.Logger
	order     []string
	consumers map[string]Consumer
}

func NewNotifier(logger zerolog.Logger) *Notifier {
	return &Notifier{
		logger:    logger.With().Str("component", "Notifier").Logger(),
		consumers: make(map[string]Consumer),
	}
}

// Register adds a named consumer. Re-registering a name replaces the
// consumer but keeps its original position, so broadcast order stays
// deterministic for the life of the process.
func (n *Notifier) Register(name string, fn Consumer) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.consumers[name]; !exists {
		n.order = append(n.order, name)
	}
	n.consumers[name] = fn
}

func (n *Notifier) Unregister(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.consumers[name]; !exists {
		return
	}
	delete(n.consumers, name)
	for i, existing := range n.order {
		if existing == name {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
}

// Broadcast invokes every consumer with the event. Each invocation is
// isolated: a failure in one consumer never prevents the rest from
// running.
func (n *Notifier) Broadcast(ev Event) {
	n.mu.RLock()
	names := make([]string, len(n.order))
	copy(names, n.order)
	fns := make([]Consumer, 0, len(names))
	for _, name := range names {
		fns = append(fns, n.consumers[name])
	}
	n.mu.RUnlock()

	for i, fn := range fns {
		n.invoke(names[i], fn, ev)
	}
}

func (n *Notifier) invoke(name string, fn Consumer, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error().
				Str("consumer", name).
				Str("scope", string(ev.Scope)).
				Interface("panic", r).
				Msg("consumer failed during broadcast")
		}
	}()
	fn(ev)
}
