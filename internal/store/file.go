package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/models"
)

// FileStore keeps all durable state under a single data directory:
//
//	<dir>/history/<identity>.jsonl   append-only history logs
//	<dir>/media/<ulid>.raw           voice-note blobs
//	<dir>/users.json                 known-user snapshot
//	<dir>/groups.json                group membership snapshot
//
// Snapshots are written to a temp file and atomically renamed so
// readers never observe a partial write.
type FileStore struct {
	dir string

	// Serializes appends per store. Appends are single O_APPEND writes,
	// the lock additionally orders them against snapshot rewrites.
	mu sync.Mutex
}

// NewFileStore creates the directory layout if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "./data"
	}
	for _, sub := range []string{"history", "media"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the root data directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Close is a no-op; FileStore holds no open handles between calls.
func (s *FileStore) Close() {}

// Ping verifies the data directory is writable.
func (s *FileStore) Ping(ctx context.Context) error {
	f, err := os.CreateTemp(s.dir, ".ping-*")
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(f.Name())
}

// logPath maps an identity to its log file. Identities come from the
// wire, so anything that could name a path outside the history
// directory is rejected.
func (s *FileStore) logPath(identity string) (string, error) {
	if identity == "" || strings.ContainsAny(identity, `/\`) || strings.Contains(identity, "..") {
		return "", fmt.Errorf("invalid log identity %q", identity)
	}
	return filepath.Join(s.dir, "history", identity+".jsonl"), nil
}

// AppendRecord appends one history record to the identity's log.
func (s *FileStore) AppendRecord(ctx context.Context, identity string, rec models.HistoryRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	data = append(data, '\n')

	path, err := s.logPath(identity)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open history log %s: %w", identity, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("append history log %s: %w", identity, err)
	}
	return nil
}

// ReadLog returns the identity's full log in append order. A missing
// log reads as empty, not as an error. Lines that fail to decode are
// skipped so one corrupt entry cannot poison the whole log.
func (s *FileStore) ReadLog(ctx context.Context, identity string) ([]models.HistoryRecord, error) {
	path, err := s.logPath(identity)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history log %s: %w", identity, err)
	}
	defer f.Close()

	var records []models.HistoryRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec models.HistoryRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history log %s: %w", identity, err)
	}
	return records, nil
}

// WriteBlob stores a voice-note payload and returns its reference: a
// ULID, unique and sortable by creation time.
func (s *FileStore) WriteBlob(ctx context.Context, data []byte) (string, error) {
	ref := ulid.Make().String()
	path := filepath.Join(s.dir, "media", ref+".raw")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return ref, nil
}

// ReadBlob reads a stored voice-note payload back by reference.
func (s *FileStore) ReadBlob(ctx context.Context, ref string) ([]byte, error) {
	// The reference must be a bare ULID; anything else could escape the
	// media directory.
	if _, err := ulid.ParseStrict(ref); err != nil {
		return nil, fmt.Errorf("invalid blob reference %q: %w", ref, err)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, "media", ref+".raw"))
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", ref, err)
	}
	return data, nil
}

// Load reads the registry snapshots. Missing files read as an empty
// registry so a fresh data directory starts clean.
func (s *FileStore) Load(ctx context.Context) (RegistrySnapshot, error) {
	snap := RegistrySnapshot{Groups: make(map[string][]string)}

	if err := s.readJSON("users.json", &snap.Users); err != nil {
		return snap, fmt.Errorf("load users: %w", err)
	}
	if err := s.readJSON("groups.json", &snap.Groups); err != nil {
		return snap, fmt.Errorf("load groups: %w", err)
	}
	if snap.Groups == nil {
		snap.Groups = make(map[string][]string)
	}
	return snap, nil
}

// SaveUsers atomically replaces the known-user snapshot.
func (s *FileStore) SaveUsers(ctx context.Context, users []string) error {
	return s.writeJSON("users.json", users)
}

// SaveGroups atomically replaces the group membership snapshot.
func (s *FileStore) SaveGroups(ctx context.Context, groups map[string][]string) error {
	return s.writeJSON("groups.json", groups)
}

func (s *FileStore) readJSON(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *FileStore) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
