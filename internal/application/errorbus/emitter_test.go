package errorbus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEmitter_FanOutInRegistrationOrderDespitePanic(t *testing.T) {
	bus := NewEmitter(zap.NewNop())

	var calls []int
	for i := 1; i <= 4; i++ {
		i := i
		bus.On(TopicPermissionError, func(*PermissionError) {
			calls = append(calls, i)
			if i == 2 {
				panic("listener 2 blew up")
			}
		})
	}

	bus.Emit(TopicPermissionError, NewPermissionError(OpReadList, "orders", nil))

	assert.Equal(t, []int{1, 2, 3, 4}, calls)
}

func TestEmitter_SameErrorInstanceReachesEveryListener(t *testing.T) {
	bus := NewEmitter(nil)
	perr := NewPermissionError(OpWrite, "orders/o1", errors.New("denied"))

	var got []*PermissionError
	bus.On(TopicPermissionError, func(e *PermissionError) { got = append(got, e) })
	bus.On(TopicPermissionError, func(e *PermissionError) { got = append(got, e) })

	bus.Emit(TopicPermissionError, perr)

	require.Len(t, got, 2)
	assert.Same(t, perr, got[0])
	assert.Same(t, perr, got[1])
}

func TestEmitter_UnsubscribeRemovesExactlyThatListener(t *testing.T) {
	bus := NewEmitter(nil)

	var a, b int
	offA := bus.On(TopicPermissionError, func(*PermissionError) { a++ })
	bus.On(TopicPermissionError, func(*PermissionError) { b++ })

	offA()
	offA() // second call is a no-op

	bus.Emit(TopicPermissionError, NewPermissionError(OpDelete, "images/x", nil))

	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, 1, bus.ListenerCount(TopicPermissionError))
}

func TestEmitter_NoReplayForLateListeners(t *testing.T) {
	bus := NewEmitter(nil)
	bus.Emit(TopicPermissionError, NewPermissionError(OpReadSingle, "users/u1", nil))

	var late int
	bus.On(TopicPermissionError, func(*PermissionError) { late++ })

	assert.Equal(t, 0, late)
}

func TestEmitter_ListenerMayUnsubscribeDuringDispatch(t *testing.T) {
	bus := NewEmitter(nil)

	var off func()
	var hits int
	off = bus.On(TopicPermissionError, func(*PermissionError) {
		hits++
		off()
	})

	bus.Emit(TopicPermissionError, NewPermissionError(OpReadList, "orders", nil))
	bus.Emit(TopicPermissionError, NewPermissionError(OpReadList, "orders", nil))

	assert.Equal(t, 1, hits)
}

func TestEmitter_TopicsAreIsolated(t *testing.T) {
	bus := NewEmitter(nil)

	var hits int
	bus.On(Topic("other"), func(*PermissionError) { hits++ })
	bus.Emit(TopicPermissionError, NewPermissionError(OpReadList, "orders", nil))

	assert.Equal(t, 0, hits)
}

func TestPermissionError_UnwrapKeepsCause(t *testing.T) {
	cause := errors.New("rpc error: code = PermissionDenied")
	perr := NewPermissionError(OpReadList, "orders", cause)

	assert.ErrorIs(t, perr, cause)
	assert.NotContains(t, perr.Error(), "rpc error")
	assert.Equal(t, OpReadList, perr.Kind)
	assert.Equal(t, "orders", perr.Path)
}

func TestPermissionError_RedactedDropsPayloadAndCause(t *testing.T) {
	perr := NewPermissionError(OpWrite, "orders/o1", errors.New("rpc denied")).
		WithRequestData(map[string]any{"customerEmail": "ann@example.com"})

	red := perr.Redacted()
	require.NotNil(t, red)
	assert.Equal(t, perr.Kind, red.Kind)
	assert.Equal(t, perr.Path, red.Path)
	assert.Equal(t, perr.Message, red.Message)
	assert.Nil(t, red.RequestData)
	assert.Nil(t, errors.Unwrap(red))
	assert.NotNil(t, perr.RequestData, "original keeps its payload for server logs")

	var nilErr *PermissionError
	assert.Nil(t, nilErr.Redacted())
}
