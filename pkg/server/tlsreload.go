package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// certReloadDebounce is the quiet period after a file event before the
// certificate is reloaded. Editors and provisioning tools often touch a
// file several times in quick succession.
const certReloadDebounce = 100 * time.Millisecond

// certStore holds the served TLS certificate and swaps it when the
// combined PEM file changes on disk. Long-lived test connections keep the
// certificate they handshook with; only new handshakes see the new one.
type certStore struct {
	path   string
	logger *slog.Logger

	mu   sync.RWMutex
	cert *tls.Certificate
}

// newCertStore loads the certificate and key from the combined PEM file
// at path. A missing or malformed file is an error: serving without a
// certificate is never acceptable at startup.
func newCertStore(path string, logger *slog.Logger) (*certStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &certStore{path: path, logger: logger}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// getCertificate is installed as tls.Config.GetCertificate so handshakes
// always pick up the most recently loaded certificate.
func (s *certStore) getCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cert, nil
}

// reload re-reads the combined PEM file. On failure after the initial
// load the previous certificate stays in service.
func (s *certStore) reload() error {
	// The combined file carries both blocks, so it serves as certificate
	// and key argument at once.
	cert, err := tls.LoadX509KeyPair(s.path, s.path)
	if err != nil {
		return fmt.Errorf("failed to load certificate from %q: %w", s.path, err)
	}

	s.mu.Lock()
	s.cert = &cert
	s.mu.Unlock()
	return nil
}

// watch reloads the certificate whenever the PEM file changes, until ctx
// is cancelled. The parent directory is watched rather than the file
// itself so atomic replace-by-rename keeps working.
func (s *certStore) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	go func() {
		defer watcher.Close()

		base := filepath.Base(s.path)
		var debounce *time.Timer

		s.logger.Info("certificate watcher started", "cert_file", s.path)
		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				s.logger.Info("certificate watcher stopped")
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if event.Op&fsnotify.Chmod == fsnotify.Chmod {
					continue
				}

				s.logger.Debug("certificate file event", "op", event.Op.String())
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(certReloadDebounce, func() {
					if err := s.reload(); err != nil {
						s.logger.Error("certificate reload failed, keeping previous certificate",
							"cert_file", s.path,
							"error", err,
						)
						return
					}
					s.logger.Info("certificate reloaded", "cert_file", s.path)
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Error("certificate watcher error", "error", err)
			}
		}
	}()
	return nil
}
