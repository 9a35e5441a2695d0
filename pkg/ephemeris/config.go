package ephemeris

import (
	"fmt"
	"sort"
	"sync"

	"github.com/levenlabs/go-lflag"
)

const (
	ProviderMeeus = "meeus"
	ProviderNOAA  = "noaa"
)

// Configured sets up the sun position providers and picks the default one from flags.
func Configured() *Map {
	name := lflag.String("ephemeris-provider", ProviderMeeus, "Sun position provider used when a request doesn't name one (available: meeus, noaa)")

	m := NewMap()
	m.SetProvider(ProviderMeeus, NewMeeus())
	m.SetProvider(ProviderNOAA, NewNOAA())

	lflag.Do(func() {
		if err := m.SetDefault(*name); err != nil {
			panic(fmt.Sprintf("ephemeris configuration failed: %v", err))
		}
	})
	return m
}

// Map manages the named sun position providers.
type Map struct {
	mu          sync.Mutex
	providers   map[string]Provider
	defaultName string
}

// NewMap creates an empty Map whose default is the meeus provider.
func NewMap() *Map {
	return &Map{
		providers:   make(map[string]Provider),
		defaultName: ProviderMeeus,
	}
}

// Provider returns the provider for the given name. An empty name returns the default.
func (m *Map) Provider(name string) (Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name == "" {
		name = m.defaultName
	}
	if p, ok := m.providers[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("unknown ephemeris provider: %s", name)
}

// SetProvider sets the provider for the given name. This is primarily used for testing.
func (m *Map) SetProvider(name string, p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[name] = p
}

// SetDefault changes which provider an empty name resolves to.
func (m *Map) SetDefault(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[name]; !ok {
		return fmt.Errorf("unknown ephemeris provider: %s", name)
	}
	m.defaultName = name
	return nil
}

// Default returns the name of the default provider.
func (m *Map) Default() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.defaultName
}

// Names returns the registered provider names in sorted order.
func (m *Map) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.providers))
	for n := range m.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
