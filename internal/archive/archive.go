// Package archive uploads periodic ledger snapshots (the full guild document
// as JSON) to S3-compatible storage. It is the server-side counterpart of the
// ledger export button: an off-site copy the family can restore from.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string
}

// Config holds archive manager configuration.
type Config struct {
	S3       S3Config
	Interval time.Duration
}

// State represents the archive manager state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current archive manager status.
type Status struct {
	State       State      `json:"state"`
	LastArchive *time.Time `json:"last_archive,omitempty"`
	LastKey     string     `json:"last_key,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// StatusCallback is called whenever the archive state changes.
type StatusCallback func(Status)

// LedgerSource provides the serialized ledger to upload.
type LedgerSource interface {
	ExportLedger() ([]byte, error)
}

// Manager runs scheduled ledger uploads.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	status   Status
	source   LedgerSource
	client   s3Client
	callback StatusCallback
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates an archive manager. It stays disabled until the S3
// bucket and credentials are configured.
func NewManager(cfg Config, source LedgerSource, callback StatusCallback, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:      cfg,
		source:   source,
		callback: callback,
		logger:   logger,
		status:   Status{State: StateDisabled},
	}

	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}

	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether uploads are configured.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

// Status returns the current status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Start begins the upload schedule. No-op when disabled or when the interval
// is zero.
func (m *Manager) Start(ctx context.Context) {
	if !m.Enabled() || m.cfg.Interval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := m.ArchiveNow(ctx); err != nil {
					m.logger.Error("scheduled archive failed", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the schedule and waits for any in-flight upload.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// ArchiveNow uploads one ledger snapshot.
func (m *Manager) ArchiveNow(ctx context.Context) error {
	if !m.Enabled() {
		return fmt.Errorf("archive is not configured")
	}

	m.setStatus(func(s *Status) {
		s.State = StateRunning
		s.Error = ""
	})

	data, err := m.source.ExportLedger()
	if err != nil {
		m.fail(fmt.Errorf("export ledger: %w", err))
		return err
	}

	key := m.objectKey(time.Now().UTC())
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.cfg.S3.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		err = fmt.Errorf("upload ledger: %w", err)
		m.fail(err)
		return err
	}

	now := time.Now().UTC()
	m.setStatus(func(s *Status) {
		s.State = StateIdle
		s.LastArchive = &now
		s.LastKey = key
	})
	m.logger.Info("ledger archived", "key", key, "bytes", len(data))
	return nil
}

func (m *Manager) objectKey(t time.Time) string {
	key := fmt.Sprintf("ledger-%s.json", t.Format("20060102-150405"))
	if m.cfg.S3.Prefix != "" {
		key = m.cfg.S3.Prefix + "/" + key
	}
	return key
}

func (m *Manager) fail(err error) {
	m.setStatus(func(s *Status) {
		s.State = StateError
		s.Error = err.Error()
	})
}

func (m *Manager) setStatus(mutate func(*Status)) {
	m.mu.Lock()
	mutate(&m.status)
	status := m.status
	m.mu.Unlock()

	if m.callback != nil {
		m.callback(status)
	}
}
