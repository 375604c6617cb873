package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileIndexingService keeps a documents directory in sync with the vector
// store: new or changed files are ingested, unchanged ones are skipped by
// content hash. Deterministic chunk ids make re-ingestion an overwrite, so a
// changed file never needs an explicit delete pass first.
type FileIndexingService struct {
	ragService RAGService
	alerts     *AlertService

	mu     sync.Mutex
	hashes map[string]string
}

// NewFileIndexingService creates an indexing service. alerts may be nil when
// mail alerting is not configured.
func NewFileIndexingService(ragService RAGService, alerts *AlertService) *FileIndexingService {
	return &FileIndexingService{
		ragService: ragService,
		alerts:     alerts,
		hashes:     make(map[string]string),
	}
}

// WatchDirectory starts a long-running process to react to file changes in
// real time. It blocks until the context is cancelled.
func (s *FileIndexingService) WatchDirectory(ctx context.Context, dirPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isSupportedFile(event.Name) {
					continue
				}

				// Editors often write via a temp file plus rename, which
				// fires several events. Create and Write are handled the
				// same, the hash check filters the duplicates.
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					log.Printf("WATCHER: File modified/created: %s. Ingesting...", event.Name)
					s.indexFile(ctx, event.Name)
				} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					// Stored records are never deleted here; drop the hash so
					// a file recreated later is re-ingested.
					log.Printf("WATCHER: File removed/renamed: %s.", event.Name)
					s.forget(event.Name)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WATCHER ERROR: %v", err)
			case <-ctx.Done():
				log.Println("WATCHER: Context cancelled, shutting down watcher.")
				return
			}
		}
	}()

	log.Printf("WATCHER: Watching directory: %s", dirPath)
	if err := watcher.Add(dirPath); err != nil {
		log.Printf("WATCHER ERROR: Failed to add path to watcher: %v", err)
	}

	<-ctx.Done()
}

// ScanAndIndexDirectory walks the directory once and ingests every supported
// file whose content hash is new or changed.
func (s *FileIndexingService) ScanAndIndexDirectory(ctx context.Context, dirPath string) {
	log.Printf("INDEXER: Starting directory scan for: %s", dirPath)

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && isSupportedFile(path) {
			s.indexFile(ctx, path)
		}
		return nil
	})
	if err != nil {
		log.Printf("INDEXER ERROR: Error walking the path %s: %v", dirPath, err)
	}
	log.Println("INDEXER: Directory scan finished.")
}

func (s *FileIndexingService) indexFile(ctx context.Context, path string) {
	hash, err := calculateFileHash(path)
	if err != nil {
		log.Printf("INDEXER WARN: Could not hash file %s: %v", path, err)
		return
	}
	s.mu.Lock()
	unchanged := s.hashes[path] == hash
	s.mu.Unlock()
	if unchanged {
		return
	}

	sourceID := filepath.Base(path)
	chunked, err := s.ragService.LoadAndChunk(ctx, path, sourceID)
	if err != nil {
		log.Printf("INDEXER ERROR: Failed to load %s: %v", path, err)
		return
	}
	result, err := s.ragService.EmbedAndUpsert(ctx, chunked)
	if err != nil {
		log.Printf("INDEXER ERROR: Failed to ingest %s: %v", path, err)
		return
	}
	log.Printf("INDEXER: Ingested %s (%d chunks).", sourceID, result.Ingested)

	s.mu.Lock()
	s.hashes[path] = hash
	s.mu.Unlock()

	if s.alerts != nil {
		// Best effort: a failed alert never fails the ingest.
		go func() {
			if _, err := s.alerts.NotifyNewDocument(context.Background(), sourceID, chunked.Chunks); err != nil {
				log.Printf("ALERT ERROR: %v", err)
			}
		}()
	}
}

func (s *FileIndexingService) forget(path string) {
	s.mu.Lock()
	delete(s.hashes, path)
	s.mu.Unlock()
}

func isSupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md":
		return true
	default:
		return false
	}
}

func calculateFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
