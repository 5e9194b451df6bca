// internal/application/errorbus/emitter.go
package errorbus

import (
	"sync"

	"go.uber.org/zap"
)

// Topic names a channel on the Emitter.
type Topic string

// TopicPermissionError carries every backend denial seen by reads and non-blocking writes.
const TopicPermissionError Topic = "permission-error"

// Listener receives errors published on a topic.
type Listener func(*PermissionError)

type entry struct {
	id uint64
	fn Listener
}

// Emitter is a process-wide publish/subscribe channel.
// It is built once by DI and handed to whoever needs it; there is no package-level instance.
//
//   - Emit is synchronous and calls listeners in registration order.
//   - A panicking listener is recovered; the remaining listeners still run.
//   - Nothing is buffered: a listener only sees events emitted after it registered.
type Emitter struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[Topic][]entry
	logger    *zap.Logger
}

func NewEmitter(logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{
		listeners: make(map[Topic][]entry),
		logger:    logger.Named("errorbus"),
	}
}

// On registers fn for topic and returns a function removing exactly that registration.
// The returned function is safe to call more than once.
func (e *Emitter) On(topic Topic, fn Listener) (unsubscribe func()) {
	if e == nil || fn == nil {
		return func() {}
	}

	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.listeners[topic] = append(e.listeners[topic], entry{id: id, fn: fn})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(topic, id) })
	}
}

func (e *Emitter) remove(topic Topic, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.listeners[topic]
	for i := range cur {
		if cur[i].id != id {
			continue
		}
		next := make([]entry, 0, len(cur)-1)
		next = append(next, cur[:i]...)
		next = append(next, cur[i+1:]...)
		if len(next) == 0 {
			delete(e.listeners, topic)
		} else {
			e.listeners[topic] = next
		}
		return
	}
}

// Emit delivers err to every listener currently registered on topic.
func (e *Emitter) Emit(topic Topic, err *PermissionError) {
	if e == nil {
		return
	}

	// dispatch over a copy so listeners may (un)register while we iterate
	e.mu.Lock()
	snapshot := append([]entry(nil), e.listeners[topic]...)
	e.mu.Unlock()

	for _, l := range snapshot {
		e.invoke(topic, l, err)
	}
}

func (e *Emitter) invoke(topic Topic, l entry, err *PermissionError) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("listener panicked",
				zap.String("topic", string(topic)),
				zap.Uint64("listenerId", l.id),
				zap.Any("panic", rec),
			)
		}
	}()
	l.fn(err)
}

// ListenerCount reports how many listeners are attached to topic.
func (e *Emitter) ListenerCount(topic Topic) int {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[topic])
}
