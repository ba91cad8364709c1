// Package fleet coordinates collections of emulated devices: registration,
// group lifecycle and routing of device-level operations.
package fleet

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-emu/internal/domain"
	"github.com/seu-repo/sigec-emu/internal/emulator"
	"github.com/seu-repo/sigec-emu/internal/ports"
)

// DeviceInfo is the listing entry for one registered device.
type DeviceInfo struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Running bool   `json:"running"`
}

// Manager owns the set of registered emulators. Registration is expected
// during setup; lifecycle and routing calls may arrive concurrently from
// HTTP handlers afterwards.
type Manager struct {
	log *zap.Logger

	mu        sync.RWMutex
	emulators map[string]ports.Emulator
	chargers  map[string]*emulator.Charger
	inverters map[string]*emulator.Inverter
}

func NewManager(log *zap.Logger) *Manager {
	return &Manager{
		log:       log,
		emulators: make(map[string]ports.Emulator),
		chargers:  make(map[string]*emulator.Charger),
		inverters: make(map[string]*emulator.Inverter),
	}
}

func (m *Manager) AddCharger(c *emulator.Charger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.emulators[c.ID()]; exists {
		return fmt.Errorf("device %s already registered", c.ID())
	}
	m.emulators[c.ID()] = c
	m.chargers[c.ID()] = c
	m.log.Info("charger registered", zap.String("device_id", c.ID()))
	return nil
}

func (m *Manager) AddInverter(inv *emulator.Inverter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.emulators[inv.ID()]; exists {
		return fmt.Errorf("device %s already registered", inv.ID())
	}
	m.emulators[inv.ID()] = inv
	m.inverters[inv.ID()] = inv
	m.log.Info("inverter registered", zap.String("device_id", inv.ID()))
	return nil
}

// StartAll launches every registered emulator.
func (m *Manager) StartAll() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.emulators {
		e.Start()
	}
	m.log.Info("fleet started", zap.Int("devices", len(m.emulators)))
}

// StopAll stops every emulator, collecting the first error but always
// attempting all of them.
func (m *Manager) StopAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var firstErr error
	for id, e := range m.emulators {
		if err := e.Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stop %s: %w", id, err)
		}
	}
	m.log.Info("fleet stopped", zap.Int("devices", len(m.emulators)))
	return firstErr
}

// StartDevice starts a single device by id.
func (m *Manager) StartDevice(id string) error {
	e, err := m.device(id)
	if err != nil {
		return err
	}
	e.Start()
	return nil
}

// StopDevice stops a single device by id.
func (m *Manager) StopDevice(id string) error {
	e, err := m.device(id)
	if err != nil {
		return err
	}
	return e.Stop()
}

// List returns a stable-order-free listing of all registered devices.
func (m *Manager) List() []DeviceInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]DeviceInfo, 0, len(m.emulators))
	for id, c := range m.chargers {
		out = append(out, DeviceInfo{ID: id, Kind: c.Kind(), Running: c.Status().Running})
	}
	for id, inv := range m.inverters {
		out = append(out, DeviceInfo{ID: id, Kind: inv.Kind(), Running: inv.Status().Running})
	}
	return out
}

func (m *Manager) ChargerStatus(id string) (domain.ChargerSnapshot, error) {
	c, err := m.charger(id)
	if err != nil {
		return domain.ChargerSnapshot{}, err
	}
	return c.Status(), nil
}

func (m *Manager) InverterStatus(id string) (domain.InverterSnapshot, error) {
	m.mu.RLock()
	inv, ok := m.inverters[id]
	m.mu.RUnlock()
	if !ok {
		return domain.InverterSnapshot{}, fmt.Errorf("device %s: %w", id, domain.ErrUnknownDevice)
	}
	return inv.Status(), nil
}

// StartTransaction routes a session start to the named charger.
func (m *Manager) StartTransaction(deviceID string, connectorID int, idTag string, meterStart float64) (string, error) {
	c, err := m.charger(deviceID)
	if err != nil {
		return "", err
	}
	return c.StartTransaction(connectorID, idTag, meterStart)
}

// StopTransaction routes a session stop to the named charger.
func (m *Manager) StopTransaction(deviceID, transactionID, reason string) error {
	c, err := m.charger(deviceID)
	if err != nil {
		return err
	}
	return c.StopTransaction(transactionID, reason)
}

// SetTickInterval changes the pacing of one device.
func (m *Manager) SetTickInterval(deviceID string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", d)
	}
	e, err := m.device(deviceID)
	if err != nil {
		return err
	}
	e.SetTickInterval(d)
	return nil
}

func (m *Manager) device(id string) (ports.Emulator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.emulators[id]
	if !ok {
		return nil, fmt.Errorf("device %s: %w", id, domain.ErrUnknownDevice)
	}
	return e, nil
}

func (m *Manager) charger(id string) (*emulator.Charger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.chargers[id]; ok {
		return c, nil
	}
	if _, ok := m.emulators[id]; ok {
		return nil, fmt.Errorf("device %s: %w", id, domain.ErrNotACharger)
	}
	return nil, fmt.Errorf("device %s: %w", id, domain.ErrUnknownDevice)
}
