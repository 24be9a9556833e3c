// Package alerting implements the side effects behind alert actions.
package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
)

var _ ports.AlertSink = (*FileSink)(nil)

// FileSink writes the latest alert to a trigger file that the desktop
// popup watches. Each alert replaces the previous one.
type FileSink struct {
	path string
	mu   sync.Mutex
}

func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("trigger file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	return &FileSink{path: path}, nil
}

func (s *FileSink) Name() string { return "file:" + s.path }

func (s *FileSink) Raise(_ context.Context, alert domain.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write trigger: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace trigger: %w", err)
	}
	return nil
}
