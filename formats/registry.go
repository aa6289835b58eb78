package formats

import (
	"sort"
	"strings"
	"sync"
)

// Registry dei formati, popolato dagli init() dei singoli package formato
var (
	registry     = make(map[string]func() StoryFormat)
	registryLock sync.RWMutex
)

// RegisterFormat registra una factory per un formato.
// I nomi sono case-insensitive.
func RegisterFormat(name string, factory func() StoryFormat) {
	registryLock.Lock()
	defer registryLock.Unlock()
	registry[strings.ToLower(name)] = factory
}

// GetRegisteredFormat restituisce il parser per un formato registrato,
// nil se il nome non è noto
func GetRegisteredFormat(name string) StoryFormat {
	registryLock.RLock()
	defer registryLock.RUnlock()

	factory, exists := registry[strings.ToLower(name)]
	if !exists {
		return nil
	}
	return factory()
}

// GetAvailableFormats restituisce i nomi registrati in ordine alfabetico
func GetAvailableFormats() []string {
	registryLock.RLock()
	defer registryLock.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsFormatRegistered verifica se un formato è registrato
func IsFormatRegistered(name string) bool {
	registryLock.RLock()
	defer registryLock.RUnlock()

	_, exists := registry[strings.ToLower(name)]
	return exists
}
