package ingestion

import (
	"context"
	"sync"
	"time"

	"wtr-service/pkg/common"
)

// Prober checks whether the remote side is reachable.
type Prober interface {
	Ping(ctx context.Context) error
}

// HealthCheckConfig configures the connectivity probe loop.
type HealthCheckConfig struct {
	Interval time.Duration
	Timeout  time.Duration
	Enabled  bool
}

// ConnectivityMonitor tracks whether the device is online. The state comes
// from a periodic probe or from an explicit SetOnline signal; listeners fire
// on every offline -> online transition.
type ConnectivityMonitor struct {
	logger      common.Logger
	prober      Prober
	healthCheck *HealthCheckConfig

	mu        sync.RWMutex
	online    bool
	onRestore []func()
}

// NewConnectivityMonitor creates a monitor that starts offline.
func NewConnectivityMonitor(logger common.Logger, prober Prober) *ConnectivityMonitor {
	return &ConnectivityMonitor{
		logger: logger,
		prober: prober,
		healthCheck: &HealthCheckConfig{
			Interval: 15 * time.Second,
			Timeout:  5 * time.Second,
			Enabled:  prober != nil,
		},
	}
}

// SetHealthCheckConfig replaces the probe configuration.
func (m *ConnectivityMonitor) SetHealthCheckConfig(config *HealthCheckConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthCheck = config
}

// OnRestore registers fn for offline -> online transitions.
func (m *ConnectivityMonitor) OnRestore(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRestore = append(m.onRestore, fn)
}

// IsOnline reports the last known state.
func (m *ConnectivityMonitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// SetOnline records an external connectivity signal.
func (m *ConnectivityMonitor) SetOnline(online bool) {
	m.mu.Lock()
	was := m.online
	m.online = online
	listeners := m.onRestore
	m.mu.Unlock()

	if was == online {
		return
	}
	if !online {
		m.logger.Warn("Connectivity lost")
		return
	}
	m.logger.Info("Connectivity restored")
	for _, fn := range listeners {
		fn()
	}
}

// Check probes once and updates the state.
func (m *ConnectivityMonitor) Check(ctx context.Context) bool {
	if m.prober == nil {
		return m.IsOnline()
	}
	m.mu.RLock()
	timeout := m.healthCheck.Timeout
	m.mu.RUnlock()

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := m.prober.Ping(probeCtx)
	if err != nil {
		m.logger.Debug("Probe failed: %v", err)
	}
	m.SetOnline(err == nil)
	return err == nil
}

// Start probes immediately and then on every interval until ctx is done.
func (m *ConnectivityMonitor) Start(ctx context.Context) {
	m.mu.RLock()
	config := *m.healthCheck
	m.mu.RUnlock()

	if !config.Enabled || m.prober == nil {
		m.logger.Info("Connectivity probe disabled")
		return
	}

	m.Check(ctx)
	go func() {
		ticker := time.NewTicker(config.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				m.logger.Info("Connectivity probe stopped")
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
}
