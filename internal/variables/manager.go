// Package variables owns the name -> Value map served over HTTP and its
// JSON array snapshot on disk.
package variables

import (
	"errors"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/loykin/varstore/internal/common"
	"github.com/loykin/varstore/internal/constants"
	"github.com/loykin/varstore/internal/filestore"
	"github.com/loykin/varstore/internal/util"
	"github.com/loykin/varstore/internal/value"
	"github.com/tidwall/gjson"
)

var (
	// ErrNotFound is returned for lookups of an unknown name.
	ErrNotFound = errors.New("variable not found")
	// ErrTypeUnchanged is returned by Set when the variable already exists
	// with exactly the requested type.
	ErrTypeUnchanged = errors.New("variable already has this type")
	// ErrInvalidEncoding is returned by Set when name, data or type is not
	// valid UTF-8 and so would not survive a JSON snapshot unchanged.
	ErrInvalidEncoding = errors.New("variable is not valid UTF-8")
)

// Manager is safe for concurrent use. Mutations live in memory until Save.
type Manager struct {
	mu     sync.RWMutex
	values map[string]value.Value

	saveMu sync.Mutex
	store  filestore.Store
	path   string
	logger *common.Logger
}

// NewManager returns an empty manager persisting to path through store.
// Call Load to read the existing snapshot.
func NewManager(store filestore.Store, path string) *Manager {
	return &Manager{
		values: make(map[string]value.Value),
		store:  store,
		path:   path,
		logger: common.GetLogger().WithComponent("variables"),
	}
}

// Load replaces the in-memory map with the snapshot at the manager's path.
// A missing or unreadable snapshot leaves the store empty.
func (m *Manager) Load() {
	content, ok := m.store.Read(m.path)
	if !ok {
		m.logger.Error("failed to read variables database, creating new one", "path", m.path)
		m.reset(nil)
		return
	}
	if !gjson.Valid(content) {
		m.logger.Error("variables database is not valid JSON, creating new one", "path", m.path)
		m.reset(nil)
		return
	}

	doc := gjson.Parse(content)
	loaded := make(map[string]value.Value)
	switch {
	case doc.IsArray():
		skipped := 0
		doc.ForEach(func(_, elem gjson.Result) bool {
			v := value.FromJSON(elem)
			if !v.IsValid() {
				skipped++
				return true
			}
			// the first occurrence of a name wins
			if _, dup := loaded[v.Name]; !dup {
				loaded[v.Name] = v
			}
			return true
		})
		if skipped > 0 {
			m.logger.Debug("skipped invalid entries", "count", skipped)
		}
	case doc.Type == gjson.Null:
	default:
		m.logger.Warn("variables database is not a JSON array, ignoring content", "path", m.path)
	}

	m.reset(loaded)
	m.logger.Info("successfully loaded variables database", "path", m.path, "count", len(loaded))
}

func (m *Manager) reset(values map[string]value.Value) {
	if values == nil {
		values = make(map[string]value.Value)
	}
	m.mu.Lock()
	m.values = values
	m.mu.Unlock()
}

// Save writes every valid value as an indented JSON array. Failures are
// logged only.
func (m *Manager) Save() {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.mu.RLock()
	names := m.sortedNamesLocked()
	doc := make([]map[string]string, 0, len(names))
	for _, name := range names {
		if v := m.values[name]; v.IsValid() {
			doc = append(doc, v.ToJSON())
		}
	}
	m.mu.RUnlock()

	content, err := util.MarshalJSON(doc, constants.JSONIndent)
	if err != nil {
		m.logger.Error("failed to encode variables database", "error", err)
		return
	}
	if !m.store.Write(m.path, content) {
		m.logger.Error("failed to save variables database", "path", m.path)
		return
	}
	m.logger.Info("successfully saved variables database", "path", m.path, "count", len(doc))
}

// Exists reports whether name is stored.
func (m *Manager) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.values[name]
	return ok
}

// Get returns a copy of the stored value.
func (m *Manager) Get(name string) (value.Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[name]
	return v, ok
}

// Data returns the data of name.
func (m *Manager) Data(name string) (string, error) {
	v, ok := m.Get(name)
	if !ok {
		return "", ErrNotFound
	}
	return v.Data, nil
}

// Type returns the stored type of name.
func (m *Manager) Type(name string) (string, error) {
	v, ok := m.Get(name)
	if !ok {
		return "", ErrNotFound
	}
	return v.Type, nil
}

// SendValue returns the JSON object {data,name,type} for name.
func (m *Manager) SendValue(name string) (string, error) {
	v, ok := m.Get(name)
	if !ok {
		return "", ErrNotFound
	}
	return v.SendData(), nil
}

// Names returns every stored name, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedNamesLocked()
}

func (m *Manager) sortedNamesLocked() []string {
	names := make([]string, 0, len(m.values))
	for name := range m.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stored names.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Set inserts a new variable, or changes the data of an existing one.
//
// An existing variable is only updated when typ differs from its stored
// type, and the stored type is kept. Setting the same type again returns
// ErrTypeUnchanged. Deployed clients depend on this polarity.
func (m *Manager) Set(name, data, typ string) error {
	if !utf8.ValidString(name) || !utf8.ValidString(data) || !utf8.ValidString(typ) {
		return ErrInvalidEncoding
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.values[name]
	if !ok {
		m.values[name] = value.New(name, data, typ)
		return nil
	}
	if existing.Type == typ {
		return ErrTypeUnchanged
	}
	existing.Data = data
	m.values[name] = existing
	return nil
}

// Remove deletes name and reports whether it was present.
func (m *Manager) Remove(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[name]; !ok {
		return false
	}
	delete(m.values, name)
	return true
}
