// Package netstate answers "are we online" for the detail/news fetchers
// and offers a watch on systemd unit state, via NetworkManager and
// systemd's D-Bus interfaces. Online re-reads NetworkManager's primary
// connection on each call; a unit watch forwards each signal it receives
// on a small buffered channel and drops signals while that channel is full.
//
// This is an enrichment layer only. The `systemctl`/`pacman` subprocess
// output remains the authoritative read path: netstate narrows *when* to
// trust cached data or re-poll, it never replaces a parse.
package netstate

import (
	"sync"

	"github.com/Wifx/gonetworkmanager/v2"
	"github.com/godbus/dbus/v5"
	"github.com/pacsea-project/pacsea/internal/plog"
)

// Monitor tracks connectivity and exposes a subscribable feed of systemd
// unit PropertiesChanged signals.
type Monitor struct {
	mu      sync.RWMutex
	online  bool
	nm      gonetworkmanager.NetworkManager
	dbusConn *dbus.Conn

	unitSubMu sync.Mutex
	unitSubs  map[string]chan string // unit object path -> notify channel
}

// New connects to NetworkManager and the system bus. If either is
// unavailable (e.g. running in a container without NetworkManager), New
// still returns a usable Monitor that reports "online" optimistically —
// connectivity gating degrades to a no-op rather than blocking fetches.
func New() *Monitor {
	m := &Monitor{online: true, unitSubs: map[string]chan string{}}

	if nm, err := gonetworkmanager.NewNetworkManager(); err == nil {
		m.nm = nm
		m.refreshConnectivity()
	} else {
		plog.Debugf("netstate: NetworkManager unavailable, assuming online: %v", err)
	}

	if conn, err := dbus.ConnectSystemBus(); err == nil {
		m.dbusConn = conn
	} else {
		plog.Debugf("netstate: system bus unavailable: %v", err)
	}

	return m
}

// refreshConnectivity reads NetworkManager's primary connection: none (or
// a "/" placeholder path) means disconnected.
func (m *Monitor) refreshConnectivity() {
	if m.nm == nil {
		return
	}
	primary, err := m.nm.GetPropertyPrimaryConnection()
	if err != nil {
		return
	}
	online := primary != nil && primary.GetPath() != "/"
	m.mu.Lock()
	m.online = online
	m.mu.Unlock()
}

// Online reports the last-known connectivity state. Fetchers consult this
// before spending a rate-limit slot; on false they skip straight to the
// same cache-fallback path a failed request would take, without tripping
// the circuit breaker — an offline machine is not a failing endpoint.
func (m *Monitor) Online() bool {
	m.refreshConnectivity()
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// WatchUnit subscribes to PropertiesChanged on a systemd unit object path.
// The returned channel
// receives the unit's object path each time it fires; callers re-poll
// `systemctl show` (the authoritative parse) on receipt rather than trusting
// the signal's payload directly.
func (m *Monitor) WatchUnit(id, objectPath string) <-chan string {
	ch := make(chan string, 8)
	m.unitSubMu.Lock()
	m.unitSubs[id] = ch
	m.unitSubMu.Unlock()

	if m.dbusConn == nil {
		return ch
	}

	signals := make(chan *dbus.Signal, 16)
	m.dbusConn.Signal(signals)
	_ = m.dbusConn.AddMatchSignal(
		dbus.WithMatchObjectPath(dbus.ObjectPath(objectPath)),
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember("PropertiesChanged"),
	)

	go func() {
		for sig := range signals {
			if sig == nil {
				continue
			}
			select {
			case ch <- objectPath:
			default:
			}
		}
	}()

	return ch
}

// UnwatchUnit stops watching a previously-subscribed unit.
func (m *Monitor) UnwatchUnit(id string) {
	m.unitSubMu.Lock()
	defer m.unitSubMu.Unlock()
	if ch, ok := m.unitSubs[id]; ok {
		close(ch)
		delete(m.unitSubs, id)
	}
}

// Close releases the D-Bus connection.
func (m *Monitor) Close() {
	if m.dbusConn != nil {
		m.dbusConn.Close()
	}
}
