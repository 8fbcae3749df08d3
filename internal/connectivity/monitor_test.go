package connectivity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubProber struct {
	err error
}

func (p *stubProber) Ping(ctx context.Context) error { return p.err }

func TestMonitor_SubscribeReceivesInitialAndChanges(t *testing.T) {
	m := NewMonitor(&stubProber{}, 0, false, nil, zap.NewNop())

	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()

	assert.False(t, <-ch)

	m.Set(true)
	assert.True(t, <-ch)

	// без изменения - без уведомления
	m.Set(true)
	select {
	case v := <-ch:
		t.Fatalf("unexpected notification %v", v)
	default:
	}
}

func TestMonitor_SlowSubscriberGetsLatest(t *testing.T) {
	m := NewMonitor(&stubProber{}, 0, true, nil, zap.NewNop())
	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()

	m.Set(false)
	m.Set(true)
	m.Set(false)

	assert.False(t, <-ch)
	select {
	case v := <-ch:
		t.Fatalf("unexpected extra value %v", v)
	default:
	}
}

func TestMonitor_Check(t *testing.T) {
	prober := &stubProber{err: errors.New("dial tcp: refused")}
	m := NewMonitor(prober, 0, true, nil, zap.NewNop())

	assert.False(t, m.Check(context.Background()))
	assert.False(t, m.IsOnline())

	prober.err = nil
	assert.True(t, m.Check(context.Background()))
	assert.True(t, m.IsOnline())
}

func TestMonitor_UnsubscribeClosesChannel(t *testing.T) {
	m := NewMonitor(&stubProber{}, 0, true, nil, zap.NewNop())
	ch, unsubscribe := m.Subscribe()
	<-ch

	unsubscribe()
	unsubscribe()

	_, ok := <-ch
	assert.False(t, ok)
	m.Set(false)
}
