package hostlink

import "sync"

// TouchGroup names one of the two mutually exclusive pairs of
// capacitive touch electrodes.
type TouchGroup int

const (
	TouchGroupLeft  TouchGroup = 0
	TouchGroupRight TouchGroup = 1
)

func (g TouchGroup) String() string {
	if g == TouchGroupRight {
		return "right"
	}
	return "left"
}

// stateMirror holds the latest known coprocessor settings, updated as a
// side effect of dispatch and read synchronously by callers.
// Last write wins; no staleness bound is guaranteed.
type stateMirror struct {
	mu          sync.RWMutex
	advertising bool
	touchGroup  TouchGroup
	connected   bool
	passkey     uint32
}

func (m *stateMirror) setAdvertising(on bool) {
	m.mu.Lock()
	m.advertising = on
	m.mu.Unlock()
}

func (m *stateMirror) setTouchGroup(g TouchGroup) {
	m.mu.Lock()
	m.touchGroup = g
	m.mu.Unlock()
}

func (m *stateMirror) setConnected(on bool) {
	m.mu.Lock()
	m.connected = on
	m.mu.Unlock()
}

func (m *stateMirror) setPasskey(code uint32) {
	m.mu.Lock()
	m.passkey = code
	m.mu.Unlock()
}

func (m *stateMirror) snapshot() (advertising bool, group TouchGroup, connected bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.advertising, m.touchGroup, m.connected
}

// Info returns the latest known advertising state, active touch group,
// and BLE link state.
func (s *Service) Info() (advertisingOn bool, group TouchGroup, linkConnected bool) {
	return s.state.snapshot()
}

// Passkey returns the most recent pairing code received from the
// coprocessor, zero if none has arrived.
func (s *Service) Passkey() uint32 {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	return s.state.passkey
}
