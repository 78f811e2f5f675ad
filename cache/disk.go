package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 10 * time.Millisecond

// Disk stores entries as files below a directory.  Entries are sharded by the
// first byte of the hashed key; each has a data file and a metadata file
// holding its expiry.  A lock file in the root serialises access across
// processes sharing the directory; mu does the same within this process since
// a flock handle is not reentrant.
type Disk struct {
	dir            string
	mu             sync.Mutex
	lock           *flock.Flock
	defaultTimeout time.Duration
	now            func() time.Time
}

type diskMetadata struct {
	Size    int64
	Expires time.Time // zero = never
}

// NewDisk creates the cache directory and its shard subdirectories.
func NewDisk(dir string, defaultTimeout time.Duration) (*Disk, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	for i := 0; i < 256; i++ {
		if err := os.MkdirAll(filepath.Join(abs, fmt.Sprintf("%02x", i)), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	return &Disk{
		dir:            abs,
		lock:           flock.New(filepath.Join(abs, ".lock")),
		defaultTimeout: defaultTimeout,
		now:            time.Now,
	}, nil
}

func (d *Disk) Get(ctx context.Context, key string) ([]byte, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.lock.TryRLockContext(ctx, lockRetryDelay); err != nil {
		return nil, false, fmt.Errorf("failed to acquire read lock: %w", err)
	}
	defer d.lock.Unlock()

	dataPath, metaPath := d.paths(key)
	meta, err := readDiskMetadata(metaPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !meta.Expires.IsZero() && !d.now().Before(meta.Expires) {
		return nil, false, nil
	}

	data, err := os.ReadFile(dataPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache file: %w", err)
	}
	if int64(len(data)) != meta.Size {
		// torn entry; treat as a miss and let the next Set repair it
		return nil, false, nil
	}
	return data, true, nil
}

func (d *Disk) Set(ctx context.Context, key string, value []byte, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.lock.TryLockContext(ctx, lockRetryDelay); err != nil {
		return fmt.Errorf("failed to acquire write lock: %w", err)
	}
	defer d.lock.Unlock()

	meta := diskMetadata{Size: int64(len(value))}
	if ttl := resolveTimeout(timeout, d.defaultTimeout); ttl > 0 {
		meta.Expires = d.now().Add(ttl)
	}

	dataPath, metaPath := d.paths(key)
	if err := writeAtomic(dataPath, value); err != nil {
		return err
	}
	return writeAtomic(metaPath, []byte(formatDiskMetadata(meta)))
}

func (d *Disk) paths(key string) (data, meta string) {
	sum := sha256.Sum256([]byte(key))
	name := hex.EncodeToString(sum[:])
	base := filepath.Join(d.dir, name[:2], name)
	return base + ".data", base + ".meta"
}

func formatDiskMetadata(m diskMetadata) string {
	var expires int64
	if !m.Expires.IsZero() {
		expires = m.Expires.UnixNano()
	}
	return fmt.Sprintf("size:%d\nexpires:%d\n", m.Size, expires)
}

func readDiskMetadata(path string) (*diskMetadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var size, expires int64
	var sawSize bool
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "size:"):
			if _, err := fmt.Sscanf(line, "size:%d", &size); err == nil {
				sawSize = true
			}
		case strings.HasPrefix(line, "expires:"):
			fmt.Sscanf(line, "expires:%d", &expires)
		}
	}
	if !sawSize {
		return nil, fmt.Errorf("metadata missing size field: %s", path)
	}
	m := &diskMetadata{Size: size}
	if expires != 0 {
		m.Expires = time.Unix(0, expires)
	}
	return m, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	return nil
}
