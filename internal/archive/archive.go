// Package archive keeps a durable JSON copy of every submission outcome,
// either in a local directory or in an S3 bucket.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/ignite/email-shooter/internal/config"
	"github.com/ignite/email-shooter/internal/domain"
)

// Store saves and loads submission records.
type Store interface {
	Save(ctx context.Context, s *domain.Submission) error
	Load(ctx context.Context, key string) (*domain.Submission, error)
}

// New creates the store selected by cfg.Type. It returns nil, nil for
// type "none".
func New(ctx context.Context, cfg config.ArchiveConfig) (Store, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "local":
		l, err := NewLocalStore(cfg.LocalPath)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("archive: s3 bucket is required")
		}
		st, err := NewS3Store(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.AWSRegion, cfg.GetAWSProfile())
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("archive: unknown type %q", cfg.Type)
	}
}

// Key returns the object key for a submission: YYYY/MM/DD/<id>.json.
func Key(s *domain.Submission) string {
	t := s.SubmittedAt.UTC()
	return path.Join(t.Format("2006"), t.Format("01"), t.Format("02"), s.ID+".json")
}

// LocalStore writes one JSON file per submission under a base directory.
type LocalStore struct {
	dir string
	mu  sync.Mutex
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating archive dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Save writes the submission as indented JSON.
func (l *LocalStore) Save(_ context.Context, s *domain.Submission) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling submission: %w", err)
	}

	p := filepath.Join(l.dir, filepath.FromSlash(Key(s)))
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("creating archive dir: %w", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing submission: %w", err)
	}
	return os.Rename(tmp, p)
}

// Load reads a submission by key.
func (l *LocalStore) Load(_ context.Context, key string) (*domain.Submission, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, filepath.FromSlash(key)))
	if err != nil {
		return nil, err
	}
	var s domain.Submission
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshaling submission: %w", err)
	}
	return &s, nil
}
