// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/lark/internal/engine"
	"github.com/desertthunder/lark/internal/events"
	"github.com/desertthunder/lark/internal/shared"
)

var _ engine.Engine = (*MockEngine)(nil)

// Call is one command received by [MockEngine].
type Call struct {
	Op       string
	Req      uint64
	Path     string
	Position float64
}

// MockEngine is a test double for [engine.Engine].
//
// Commands are recorded and never produce events on their own; tests drive the event side with [MockEngine.Emit].
// Setting an entry in Fail makes the named op ("load", "play", "pause", "seek") return that error.
type MockEngine struct {
	hub *events.Hub

	mu           sync.Mutex
	calls        []Call
	Fail         map[string]error
	subscribes   int
	unsubscribes int
}

func NewMockEngine() *MockEngine {
	return &MockEngine{
		hub:  events.NewHub(shared.NewLogger(io.Discard)),
		Fail: map[string]error{},
	}
}

func (m *MockEngine) record(c Call) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
	return m.Fail[c.Op]
}

func (m *MockEngine) Load(ctx context.Context, req uint64, path string) error {
	return m.record(Call{Op: "load", Req: req, Path: path})
}

func (m *MockEngine) Play(ctx context.Context, req uint64) error {
	return m.record(Call{Op: "play", Req: req})
}

func (m *MockEngine) Pause(ctx context.Context, req uint64) error {
	return m.record(Call{Op: "pause", Req: req})
}

func (m *MockEngine) Seek(ctx context.Context, req uint64, position float64) error {
	return m.record(Call{Op: "seek", Req: req, Position: position})
}

func (m *MockEngine) Subscribe() (events.Subscription, error) {
	m.mu.Lock()
	m.subscribes++
	m.mu.Unlock()
	return m.hub.Subscribe()
}

func (m *MockEngine) Unsubscribe(id string) error {
	m.mu.Lock()
	m.unsubscribes++
	m.mu.Unlock()
	return m.hub.Unsubscribe(id)
}

// Emit publishes e to every subscriber.
func (m *MockEngine) Emit(e events.Event) {
	m.hub.Publish(e)
}

// Calls returns a copy of the recorded commands.
func (m *MockEngine) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// LastCall returns the most recent command, or the zero Call.
func (m *MockEngine) LastCall() Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return Call{}
	}
	return m.calls[len(m.calls)-1]
}

// Subscriptions returns how many times Subscribe and Unsubscribe were called.
func (m *MockEngine) Subscriptions() (subscribed, unsubscribed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscribes, m.unsubscribes
}

// Open returns the number of live subscriptions.
func (m *MockEngine) Open() int {
	return m.hub.Len()
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// MustWriteFile creates path with content, including parent directories.
func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
