package watcher

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"twee-engine/compiler"
	"twee-engine/formats/sugarcube"
	"twee-engine/parser"
)

// FileWatcher monitora cambiamenti ai file .twee e tiene aggiornato
// l'ultimo risultato di parsing
type FileWatcher struct {
	watcher      *fsnotify.Watcher
	watchedPaths []string
	bundler      *compiler.StoryBundler
	buildOpts    *compiler.BuildOptions
	debounceTime time.Duration
	eventChan    chan WatchEvent
	stopChan     chan bool
	isRunning    bool

	mu          sync.RWMutex
	latestStory *parser.ParseResult
}

// WatchEvent rappresenta un evento del watcher
type WatchEvent struct {
	Type      string    `json:"type"` // "created", "modified", "deleted", "renamed", "parse_error", "build_success", "build_error"
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// WatcherConfig configurazione per il watcher
type WatcherConfig struct {
	Paths        []string               // Path da monitorare
	Bundler      *compiler.StoryBundler // Bundler da usare per le rebuild (opzionale)
	BuildOpts    *compiler.BuildOptions // Opzioni build
	DebounceTime time.Duration          // Tempo di debounce (default: 500ms)
}

// NewFileWatcher crea un nuovo file watcher
func NewFileWatcher(config WatcherConfig) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("errore creazione watcher: %w", err)
	}

	if config.DebounceTime == 0 {
		config.DebounceTime = 500 * time.Millisecond
	}

	fw := &FileWatcher{
		watcher:      watcher,
		watchedPaths: config.Paths,
		bundler:      config.Bundler,
		buildOpts:    config.BuildOpts,
		debounceTime: config.DebounceTime,
		eventChan:    make(chan WatchEvent, 100),
		stopChan:     make(chan bool),
		isRunning:    false,
	}

	for _, path := range config.Paths {
		if err := watcher.Add(path); err != nil {
			return nil, fmt.Errorf("errore aggiunta path %s: %w", path, err)
		}
		log.Printf("👀 Watching: %s", path)
	}

	return fw, nil
}

// Start avvia il file watcher
func (fw *FileWatcher) Start() error {
	if fw.isRunning {
		return fmt.Errorf("watcher già in esecuzione")
	}

	fw.isRunning = true
	log.Println("🚀 File watcher avviato!")

	// Map per debouncing
	debounceMap := make(map[string]*time.Timer)

	go func() {
		for {
			select {
			case event, ok := <-fw.watcher.Events:
				if !ok {
					return
				}

				// Ignora file non .twee
				if !strings.HasSuffix(event.Name, ".twee") {
					continue
				}

				var eventType string
				switch {
				case event.Op&fsnotify.Create == fsnotify.Create:
					eventType = "created"
				case event.Op&fsnotify.Write == fsnotify.Write:
					eventType = "modified"
				case event.Op&fsnotify.Remove == fsnotify.Remove:
					eventType = "deleted"
				case event.Op&fsnotify.Rename == fsnotify.Rename:
					eventType = "renamed"
				default:
					continue
				}

				log.Printf("📝 File %s: %s", eventType, filepath.Base(event.Name))

				fw.eventChan <- WatchEvent{
					Type:      eventType,
					Path:      event.Name,
					Timestamp: time.Now(),
				}

				// Debounce per riparse/rebuild
				if timer, exists := debounceMap[event.Name]; exists {
					timer.Stop()
				}
				debounceMap[event.Name] = time.AfterFunc(fw.debounceTime, func() {
					if eventType == "modified" || eventType == "created" {
						fw.reparse(event.Name)
					}
					delete(debounceMap, event.Name)
				})

			case err, ok := <-fw.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("❌ Errore watcher: %v", err)

			case <-fw.stopChan:
				log.Println("🛑 File watcher fermato")
				return
			}
		}
	}()

	return nil
}

// Stop ferma il file watcher
func (fw *FileWatcher) Stop() error {
	if !fw.isRunning {
		return fmt.Errorf("watcher non in esecuzione")
	}

	fw.isRunning = false
	fw.stopChan <- true

	if err := fw.watcher.Close(); err != nil {
		return fmt.Errorf("errore chiusura watcher: %w", err)
	}

	close(fw.eventChan)
	return nil
}

// Events restituisce il canale degli eventi
func (fw *FileWatcher) Events() <-chan WatchEvent {
	return fw.eventChan
}

// IsRunning verifica se il watcher è attivo
func (fw *FileWatcher) IsRunning() bool {
	return fw.isRunning
}

// LatestStory ritorna l'ultimo parsing riuscito (nil se nessuno)
func (fw *FileWatcher) LatestStory() *parser.ParseResult {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return fw.latestStory
}

// AddPath aggiunge un path da monitorare
func (fw *FileWatcher) AddPath(path string) error {
	if err := fw.watcher.Add(path); err != nil {
		return fmt.Errorf("errore aggiunta path: %w", err)
	}
	fw.watchedPaths = append(fw.watchedPaths, path)
	log.Printf("👀 Watching: %s", path)
	return nil
}

// RemovePath rimuove un path dal monitoraggio
func (fw *FileWatcher) RemovePath(path string) error {
	if err := fw.watcher.Remove(path); err != nil {
		return fmt.Errorf("errore rimozione path: %w", err)
	}

	for i, p := range fw.watchedPaths {
		if p == path {
			fw.watchedPaths = append(fw.watchedPaths[:i], fw.watchedPaths[i+1:]...)
			break
		}
	}

	log.Printf("👁️  Stopped watching: %s", path)
	return nil
}

// reparse rilegge il file modificato e, se configurato, lancia la rebuild
func (fw *FileWatcher) reparse(filePath string) {
	log.Printf("🔄 Riparse: %s", filepath.Base(filePath))

	story, err := sugarcube.ParseFile(filePath)
	if err != nil {
		log.Printf("❌ Parsing fallito per %s: %v", filepath.Base(filePath), err)
		fw.eventChan <- WatchEvent{
			Type:      "parse_error",
			Path:      filePath,
			Timestamp: time.Now(),
		}
		return
	}

	if len(story.Errors) > 0 {
		for _, msg := range story.Errors {
			log.Printf("⚠️  %s", msg)
		}
	}

	fw.mu.Lock()
	fw.latestStory = story
	fw.mu.Unlock()

	if fw.bundler == nil {
		return
	}

	start := time.Now()
	result, err := fw.bundler.Build(filePath, fw.buildOpts)
	elapsed := time.Since(start)

	if err != nil {
		log.Printf("❌ Build fallita (%v): %v", elapsed, err)
		if result != nil && result.ErrorMessage != "" {
			log.Printf("   %s", result.ErrorMessage)
		}
		fw.eventChan <- WatchEvent{
			Type:      "build_error",
			Path:      filePath,
			Timestamp: time.Now(),
		}
		return
	}

	log.Printf("✅ Build completata in %v (%d passaggi)", elapsed, result.PassageCount)
	if len(result.Warnings) > 0 {
		log.Printf("⚠️  %d warning(s)", len(result.Warnings))
	}
	fw.eventChan <- WatchEvent{
		Type:      "build_success",
		Path:      filePath,
		Timestamp: time.Now(),
	}
}
