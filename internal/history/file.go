package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// FileStore reads history from a JSON (default) or YAML (.yaml/.yml) file
// holding a list of {text} objects. The parsed file is cached until Watch
// sees it change.
type FileStore struct {
	path string

	mu     sync.RWMutex
	cached []Record
	valid  bool
	gen    uint64 // bumped by every invalidation

	afterRead func() // test hook, runs between read and caching

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	if s.valid {
		records := append([]Record(nil), s.cached...)
		s.mu.RUnlock()
		return records, nil
	}
	gen := s.gen
	s.mu.RUnlock()

	records, err := s.read()
	if err != nil {
		return nil, err
	}
	if s.afterRead != nil {
		s.afterRead()
	}

	// An invalidation during read means the file changed under us; return
	// what was read but leave the cache empty.
	s.mu.Lock()
	if s.gen == gen {
		s.cached = records
		s.valid = true
	}
	s.mu.Unlock()

	return append([]Record(nil), records...), nil
}

func (s *FileStore) read() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("history: no previous conversations at %s", s.path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", s.path, err)
	}

	var records []Record
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	default:
		err = json.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, fmt.Errorf("parse history %s: %w", s.path, err)
	}
	return records, nil
}

func (s *FileStore) invalidate() {
	s.mu.Lock()
	s.valid = false
	s.cached = nil
	s.gen++
	s.mu.Unlock()
}

// Watch drops the cache whenever the history file is written, created,
// removed or renamed, so the next Load rereads it. It returns once the
// watcher is installed.
func (s *FileStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create history watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	s.watcher = watcher

	s.wg.Add(1)
	go s.watchLoop(ctx)

	log.Printf("history: watching %s for changes", s.path)
	return nil
}

// Stop ends a running Watch.
func (s *FileStore) Stop() {
	if s.watcher != nil {
		s.watcher.Close()
	}
	s.wg.Wait()
}

func (s *FileStore) watchLoop(ctx context.Context) {
	defer s.wg.Done()
	name := filepath.Base(s.path)

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				log.Printf("history: %s changed (%s), dropping cache", event.Name, event.Op)
				s.invalidate()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("history: watcher error: %v", err)

		case <-ctx.Done():
			return
		}
	}
}
