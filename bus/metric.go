package bus

import (
	"sync/atomic"
)

// Metrics contains atomic counters for one bus.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type Metrics struct {
	// ExchangeCount indicates the number of transport exchanges performed.
	ExchangeCount atomic.Uint64
	// ExchangeErrCount indicates the number of exchanges the transport failed.
	ExchangeErrCount atomic.Uint64
	// ProtocolErrCount indicates replies rejected by CRC or confirmation checks.
	ProtocolErrCount atomic.Uint64
	// BytesSent indicates the total number of request bytes written.
	BytesSent atomic.Uint64
	// BytesRecv indicates the total number of reply bytes read.
	BytesRecv atomic.Uint64
	// LockWaitCount indicates how often Do had to wait for another holder.
	LockWaitCount atomic.Uint64
}

func (m *Metrics) incExchangeCount() {
	m.ExchangeCount.Add(1)
}

func (m *Metrics) incExchangeErrCount() {
	m.ExchangeErrCount.Add(1)
}

// IncProtocolErrCount records a reply that failed validation above the
// transport layer.
func (m *Metrics) IncProtocolErrCount() {
	m.ProtocolErrCount.Add(1)
}

func (m *Metrics) addBytes(sent, recv int) {
	m.BytesSent.Add(uint64(sent)) //nolint:gosec // lengths are non-negative
	m.BytesRecv.Add(uint64(recv)) //nolint:gosec // lengths are non-negative
}

func (m *Metrics) incLockWaitCount() {
	m.LockWaitCount.Add(1)
}
