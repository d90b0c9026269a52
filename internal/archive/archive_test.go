package archive

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

type staticSource struct {
	data []byte
	err  error
}

func (s staticSource) ExportLedger() ([]byte, error) { return s.data, s.err }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func enabledManager(source LedgerSource) (*Manager, *mockS3Client) {
	m := NewManager(Config{
		S3: S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret", Prefix: "guild"},
	}, source, nil, testLogger())
	mock := newMockS3()
	m.client = mock
	return m, mock
}

func TestManagerStateLifecycle(t *testing.T) {
	// Without S3 config -> disabled
	m := NewManager(Config{}, nil, nil, testLogger())
	if m.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q", m.Status().State, StateDisabled)
	}
	if m.Enabled() {
		t.Error("manager without config should be disabled")
	}

	// With S3 config -> idle
	m2 := NewManager(Config{
		S3: S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
	}, nil, nil, testLogger())
	if m2.Status().State != StateIdle {
		t.Errorf("state = %q, want %q", m2.Status().State, StateIdle)
	}
}

func TestArchiveNow(t *testing.T) {
	ledger := []byte(`{"familyXP": 100}`)
	m, mock := enabledManager(staticSource{data: ledger})

	if err := m.ArchiveNow(context.Background()); err != nil {
		t.Fatal(err)
	}

	status := m.Status()
	if status.State != StateIdle {
		t.Errorf("state = %q, want %q", status.State, StateIdle)
	}
	if status.LastArchive == nil {
		t.Error("LastArchive not set")
	}
	if !strings.HasPrefix(status.LastKey, "guild/ledger-") || !strings.HasSuffix(status.LastKey, ".json") {
		t.Errorf("LastKey = %q, want guild/ledger-<timestamp>.json", status.LastKey)
	}

	mock.mu.Lock()
	defer mock.mu.Unlock()
	if got := string(mock.objects[status.LastKey]); got != string(ledger) {
		t.Errorf("uploaded body = %q, want the ledger", got)
	}
}

func TestArchiveNowUploadFailure(t *testing.T) {
	m, mock := enabledManager(staticSource{data: []byte("{}")})
	mock.putErr = errors.New("bucket gone")

	if err := m.ArchiveNow(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	status := m.Status()
	if status.State != StateError {
		t.Errorf("state = %q, want %q", status.State, StateError)
	}
	if status.Error == "" {
		t.Error("error message not recorded")
	}
}

func TestArchiveNowExportFailure(t *testing.T) {
	m, _ := enabledManager(staticSource{err: errors.New("not loaded")})

	if err := m.ArchiveNow(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if m.Status().State != StateError {
		t.Errorf("state = %q, want %q", m.Status().State, StateError)
	}
}

func TestArchiveNowDisabled(t *testing.T) {
	m := NewManager(Config{}, staticSource{data: []byte("{}")}, nil, testLogger())
	if err := m.ArchiveNow(context.Background()); err == nil {
		t.Fatal("expected error from disabled manager")
	}
}

func TestStatusCallback(t *testing.T) {
	var mu sync.Mutex
	var states []State
	cb := func(s Status) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	}

	m := NewManager(Config{
		S3: S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
	}, staticSource{data: []byte("{}")}, cb, testLogger())
	m.client = newMockS3()

	if err := m.ArchiveNow(context.Background()); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || states[0] != StateRunning || states[1] != StateIdle {
		t.Errorf("callback states = %v, want [running idle]", states)
	}
}

func TestStartStop(t *testing.T) {
	m, _ := enabledManager(staticSource{data: []byte("{}")})
	m.cfg.Interval = time.Hour

	m.Start(context.Background())
	m.Stop()

	// Stop with no schedule running is a no-op.
	m.Stop()
}
