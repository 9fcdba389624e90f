package hostlink

import "sync"

// Callback is invoked synchronously from the dispatch loop. A slow
// callback stalls further frame processing; hand off to a goroutine if
// that matters.
type Callback func()

// Each event class has a single slot; the last registration wins and a
// nil slot is a silent no-op, matching the coprocessor driver contract.
type callbackSet struct {
	mu           sync.RWMutex
	buttonUp     Callback
	buttonDown   Callback
	buttonLeft   Callback
	buttonRight  Callback
	buttonSlide  Callback
	alert        Callback
	notification Callback
	passkey      Callback
}

func (c *callbackSet) set(slot *Callback, cb Callback) {
	c.mu.Lock()
	*slot = cb
	c.mu.Unlock()
}

func (c *callbackSet) invoke(slot func(*callbackSet) Callback) {
	c.mu.RLock()
	cb := slot(c)
	c.mu.RUnlock()
	if cb != nil {
		cb()
	}
}

// AttachButtonUp registers the callback for the up touch electrode.
func (s *Service) AttachButtonUp(cb Callback) {
	s.callbacks.set(&s.callbacks.buttonUp, cb)
}

// AttachButtonDown registers the callback for the down touch electrode.
func (s *Service) AttachButtonDown(cb Callback) {
	s.callbacks.set(&s.callbacks.buttonDown, cb)
}

// AttachButtonLeft registers the callback for the left touch electrode.
func (s *Service) AttachButtonLeft(cb Callback) {
	s.callbacks.set(&s.callbacks.buttonLeft, cb)
}

// AttachButtonRight registers the callback for the right touch electrode.
func (s *Service) AttachButtonRight(cb Callback) {
	s.callbacks.set(&s.callbacks.buttonRight, cb)
}

// AttachButtonSlide registers the callback for the slide gesture.
func (s *Service) AttachButtonSlide(cb Callback) {
	s.callbacks.set(&s.callbacks.buttonSlide, cb)
}

// AttachAlert registers the callback for inbound alerts.
func (s *Service) AttachAlert(cb Callback) {
	s.callbacks.set(&s.callbacks.alert, cb)
}

// AttachNotification registers the callback for inbound notifications.
func (s *Service) AttachNotification(cb Callback) {
	s.callbacks.set(&s.callbacks.notification, cb)
}

// AttachPasskey registers the callback invoked when the coprocessor
// asks the host to display a pairing code. The code itself is read via
// Passkey.
func (s *Service) AttachPasskey(cb Callback) {
	s.callbacks.set(&s.callbacks.passkey, cb)
}
