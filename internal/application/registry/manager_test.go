package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aescanero/warden/pkg/domain"
)

func TestRegisterAssignsWorkerID(t *testing.T) {
	m, _, _, _ := newTestManager(t, 15*time.Second, 5*time.Second)

	record, err := m.Register(context.Background(), &domain.RegisterRequest{
		Name: "worker-1",
		Host: "10.0.0.1",
		Port: 8001,
	})
	require.NoError(t, err)
	require.NotEmpty(t, record.WorkerID)
	require.Equal(t, domain.StatusRegistered, record.Status)
	require.Nil(t, record.LastHeartbeatAt)
}

func TestRegisterValidation(t *testing.T) {
	m, _, _, _ := newTestManager(t, 15*time.Second, 5*time.Second)

	cases := []struct {
		name string
		req  *domain.RegisterRequest
	}{
		{"missing name", &domain.RegisterRequest{Host: "10.0.0.1", Port: 8001}},
		{"missing host", &domain.RegisterRequest{Name: "w", Port: 8001}},
		{"bad port", &domain.RegisterRequest{Name: "w", Host: "10.0.0.1", Port: 0}},
		{"nil request", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Register(context.Background(), tc.req)
			require.Error(t, err)
		})
	}
}

func TestRegisterReplacesRecord(t *testing.T) {
	m, _, clock, _ := newTestManager(t, 15*time.Second, 5*time.Second)

	conn := registerAndAttach(t, m, "w1")
	require.NoError(t, m.Heartbeat(context.Background(), "w1", heartbeatFor("w1", clock.Now())))

	clock.Advance(10 * time.Second)

	record, err := m.Register(context.Background(), &domain.RegisterRequest{
		WorkerID: "w1",
		Name:     "worker-1-v2",
		Host:     "10.0.0.2",
		Port:     8002,
	})
	require.NoError(t, err)

	// The record starts over and the stale channel is gone
	require.Equal(t, domain.StatusRegistered, record.Status)
	require.Equal(t, clock.Now(), record.RegisteredAt)
	require.Nil(t, record.LastHeartbeatAt)
	require.True(t, conn.isClosed())

	_, ok := m.conns.get("w1")
	require.False(t, ok)
}

func TestAttachRequiresRegistration(t *testing.T) {
	m, _, _, _ := newTestManager(t, 15*time.Second, 5*time.Second)

	err := m.Attach(context.Background(), "ghost", newStubConn())
	require.ErrorIs(t, err, domain.ErrUnknownWorker)
}

func TestAttachReplacesConnection(t *testing.T) {
	m, _, _, _ := newTestManager(t, 15*time.Second, 5*time.Second)

	first := registerAndAttach(t, m, "w1")

	// The worker reconnects after being marked disconnected
	require.NoError(t, m.Disconnect(context.Background(), "w1"))
	require.True(t, first.isClosed())

	second := newStubConn()
	require.NoError(t, m.Attach(context.Background(), "w1", second))

	installed, ok := m.conns.get("w1")
	require.True(t, ok)
	require.Same(t, second, installed.(*stubConn))
}

func TestHeartbeatMovesWorkerToAlive(t *testing.T) {
	m, _, clock, _ := newTestManager(t, 15*time.Second, 5*time.Second)

	registerAndAttach(t, m, "w1")

	record, err := m.Get(context.Background(), "w1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusConnected, record.Status)

	require.NoError(t, m.Heartbeat(context.Background(), "w1", heartbeatFor("w1", clock.Now())))

	record, err = m.Get(context.Background(), "w1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusAlive, record.Status)
	require.Equal(t, clock.Now(), *record.LastHeartbeatAt)
}

func TestHeartbeatReceiptTimeIsAuthoritative(t *testing.T) {
	m, _, clock, _ := newTestManager(t, 15*time.Second, 5*time.Second)

	registerAndAttach(t, m, "w1")

	// The advisory timestamp in the message is ignored
	bogus := clock.Now().Add(-time.Hour)
	require.NoError(t, m.Heartbeat(context.Background(), "w1", heartbeatFor("w1", bogus)))

	record, err := m.Get(context.Background(), "w1")
	require.NoError(t, err)
	require.Equal(t, clock.Now(), *record.LastHeartbeatAt)
}

func TestHeartbeatWithoutConnectionIsRejected(t *testing.T) {
	m, _, clock, _ := newTestManager(t, 15*time.Second, 5*time.Second)

	_, err := m.Register(context.Background(), &domain.RegisterRequest{
		WorkerID: "w1",
		Name:     "worker-1",
		Host:     "10.0.0.1",
		Port:     8001,
	})
	require.NoError(t, err)

	err = m.Heartbeat(context.Background(), "w1", heartbeatFor("w1", clock.Now()))
	require.ErrorIs(t, err, domain.ErrNotConnected)

	// No record mutation happened
	record, err := m.Get(context.Background(), "w1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusRegistered, record.Status)
	require.Nil(t, record.LastHeartbeatAt)
}

func TestHeartbeatMismatchedWorkerID(t *testing.T) {
	m, _, clock, metrics := newTestManager(t, 15*time.Second, 5*time.Second)

	registerAndAttach(t, m, "w1")

	err := m.Heartbeat(context.Background(), "w1", heartbeatFor("w2", clock.Now()))
	require.ErrorIs(t, err, domain.ErrMalformedHeartbeat)
	require.Equal(t, 1, metrics.protocolErrorCount())
}

func TestTwoWorkersAreIndependent(t *testing.T) {
	m, _, clock, _ := newTestManager(t, 15*time.Second, 5*time.Second)

	registerAndAttach(t, m, "w1")
	registerAndAttach(t, m, "w2")

	// Interleaved heartbeat streams
	require.NoError(t, m.Heartbeat(context.Background(), "w1", heartbeatFor("w1", clock.Now())))
	clock.Advance(2 * time.Second)
	require.NoError(t, m.Heartbeat(context.Background(), "w2", heartbeatFor("w2", clock.Now())))
	clock.Advance(2 * time.Second)
	require.NoError(t, m.Heartbeat(context.Background(), "w1", heartbeatFor("w1", clock.Now())))

	w1, err := m.Get(context.Background(), "w1")
	require.NoError(t, err)
	w2, err := m.Get(context.Background(), "w2")
	require.NoError(t, err)

	require.Equal(t, domain.StatusAlive, w1.Status)
	require.Equal(t, domain.StatusAlive, w2.Status)
	require.Equal(t, clock.Now(), *w1.LastHeartbeatAt)
	require.Equal(t, clock.Now().Add(-2*time.Second), *w2.LastHeartbeatAt)
}

func TestServeUncleanClose(t *testing.T) {
	m, _, clock, _ := newTestManager(t, 15*time.Second, 5*time.Second)

	conn := registerAndAttach(t, m, "w1")

	done := make(chan struct{})
	go func() {
		m.Serve(context.Background(), "w1", conn)
		close(done)
	}()

	conn.send(heartbeatFor("w1", clock.Now()))

	require.Eventually(t, func() bool {
		record, err := m.Get(context.Background(), "w1")
		return err == nil && record.Status == domain.StatusAlive
	}, time.Second, 5*time.Millisecond)

	// The channel dies without any disconnect message
	conn.Close()
	<-done

	record, err := m.Get(context.Background(), "w1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusDisconnected, record.Status)

	_, ok := m.conns.get("w1")
	require.False(t, ok)
}

func TestServeMalformedHeartbeat(t *testing.T) {
	m, _, clock, metrics := newTestManager(t, 15*time.Second, 5*time.Second)

	conn := registerAndAttach(t, m, "w1")

	done := make(chan struct{})
	go func() {
		m.Serve(context.Background(), "w1", conn)
		close(done)
	}()

	// A heartbeat naming the wrong worker terminates the loop
	conn.send(heartbeatFor("intruder", clock.Now()))
	<-done

	record, err := m.Get(context.Background(), "w1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusDisconnected, record.Status)
	require.True(t, conn.isClosed())
	require.Equal(t, 1, metrics.protocolErrorCount())
}

func TestRecoveryAfterDisconnect(t *testing.T) {
	m, _, clock, _ := newTestManager(t, 15*time.Second, 5*time.Second)

	registerAndAttach(t, m, "w1")
	require.NoError(t, m.Disconnect(context.Background(), "w1"))

	record, err := m.Get(context.Background(), "w1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusDisconnected, record.Status)

	// Fresh registration and heartbeat bring the worker back to alive
	registerAndAttach(t, m, "w1")
	require.NoError(t, m.Heartbeat(context.Background(), "w1", heartbeatFor("w1", clock.Now())))

	record, err = m.Get(context.Background(), "w1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusAlive, record.Status)
}

func TestRemoveDeletesRecord(t *testing.T) {
	m, _, _, _ := newTestManager(t, 15*time.Second, 5*time.Second)

	conn := registerAndAttach(t, m, "w1")
	require.NoError(t, m.Remove(context.Background(), "w1"))

	require.True(t, conn.isClosed())
	_, err := m.Get(context.Background(), "w1")
	require.ErrorIs(t, err, domain.ErrUnknownWorker)
}

func TestShutdownMarksConnectedWorkersDisconnected(t *testing.T) {
	m, _, _, _ := newTestManager(t, 15*time.Second, 5*time.Second)

	conn1 := registerAndAttach(t, m, "w1")
	conn2 := registerAndAttach(t, m, "w2")

	go m.Serve(context.Background(), "w1", conn1)
	go m.Serve(context.Background(), "w2", conn2)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	require.True(t, conn1.isClosed())
	require.True(t, conn2.isClosed())

	for _, workerID := range []string{"w1", "w2"} {
		record, err := m.Get(context.Background(), workerID)
		require.NoError(t, err)
		require.Equal(t, domain.StatusDisconnected, record.Status)
	}
}
