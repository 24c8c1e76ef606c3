package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/topupbot/core/logger"
)

// FileStore keeps all orders in one JSON array file.
// Every mutation rewrites the file through a temp file and rename.
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens path, creating it as an empty list when absent.
func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("orders file path is required")
	}
	s := &FileStore{path: path, now: time.Now}
	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create orders dir: %w", err)
			}
		}
		if err := s.write(nil); err != nil {
			return nil, err
		}
		logger.Store.Info("orders.init", slog.String("path", path))
	case err != nil:
		return nil, fmt.Errorf("stat orders file: %w", err)
	default:
		if _, err := s.read(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *FileStore) read() ([]Order, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}
	var list []Order
	if len(strings.TrimSpace(string(data))) == 0 {
		return list, nil
	}
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode orders %s: %w", s.path, err)
	}
	return list, nil
}

func (s *FileStore) write(list []Order) error {
	if list == nil {
		list = []Order{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode orders: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp orders file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write orders: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync orders: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close orders: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("replace orders file: %w", err)
	}
	return nil
}

func indexOf(list []Order, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// Create appends o to the log.
func (s *FileStore) Create(ctx context.Context, o Order) error {
	if err := validateNew(o); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.read()
	if err != nil {
		return err
	}
	if indexOf(list, o.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, o.ID)
	}
	if err := s.write(append(list, o)); err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.Store, slog.LevelInfo, "order.create",
		slog.String("status", "ok"),
		slog.String("order_id", o.ID),
		slog.Int("orders", len(list)+1),
	)
	return nil
}

// Get returns the order with id.
func (s *FileStore) Get(_ context.Context, id string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.read()
	if err != nil {
		return Order{}, err
	}
	if i := indexOf(list, id); i >= 0 {
		return list[i], nil
	}
	return Order{}, ErrNotFound
}

// List returns orders in file order, optionally filtered by status.
func (s *FileStore) List(_ context.Context, status Status) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.read()
	if err != nil {
		return nil, err
	}
	if status == "" {
		return list, nil
	}
	out := make([]Order, 0, len(list))
	for _, o := range list {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

// Decide performs the single allowed transition out of Pending.
func (s *FileStore) Decide(ctx context.Context, id string, to Status) (Order, error) {
	if err := validateDecision(to); err != nil {
		return Order{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.read()
	if err != nil {
		return Order{}, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return Order{}, ErrNotFound
	}
	if list[i].Status != StatusPending {
		return list[i], ErrAlreadyProcessed
	}
	decided := s.now().UTC()
	list[i].Status = to
	list[i].DecidedAt = &decided
	if err := s.write(list); err != nil {
		return Order{}, err
	}
	logger.LogEvent(ctx, logger.Store, slog.LevelInfo, "order.decide",
		slog.String("status", "ok"),
		slog.String("order_id", id),
		slog.String("decision", string(to)),
	)
	return list[i], nil
}

// Ping checks that the log is readable.
func (s *FileStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.read()
	return err
}

// Close is a no-op; every mutation is already on disk.
func (s *FileStore) Close() error { return nil }
