package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"optivista/internal/application/errorbus"
)

func TestMetrics_Feeds(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.FeedOpened("orders")
	m.FeedOpened("users/u1")
	m.FeedOpened("users/u2")
	m.FeedClosed("users/u1")

	assert.Equal(t, 1.0, value(t, m.feedsOpen.WithLabelValues("orders")))
	assert.Equal(t, 1.0, value(t, m.feedsOpen.WithLabelValues("users")))
	assert.Equal(t, 2.0, value(t, m.feedsOpened.WithLabelValues("users")))
}

func TestMetrics_WritesAndPermissionErrors(t *testing.T) {
	m := New(prometheus.NewRegistry())
	bus := errorbus.NewEmitter(zap.NewNop())
	off := m.Attach(bus)
	defer off()

	m.WriteFinished(errorbus.OpWrite, "orders/o1", nil)
	m.WriteFinished(errorbus.OpDelete, "images/i1", errors.New("denied"))
	bus.Emit(errorbus.TopicPermissionError, errorbus.NewPermissionError(errorbus.OpDelete, "images/i1", nil))

	assert.Equal(t, 1.0, value(t, m.writes.WithLabelValues("write", "ok")))
	assert.Equal(t, 1.0, value(t, m.writes.WithLabelValues("delete", "error")))
	assert.Equal(t, 1.0, value(t, m.permissionErr.WithLabelValues("delete", "images")))
}

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatal(err)
	}
	if g := out.GetGauge(); g != nil {
		return g.GetValue()
	}
	return out.GetCounter().GetValue()
}

func TestCollectionOf(t *testing.T) {
	assert.Equal(t, "users", collectionOf("/users/u1"))
	assert.Equal(t, "images", collectionOf("images"))
	assert.Equal(t, "unknown", collectionOf(""))
}
