package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FSStore keeps archives as files under a root directory.
type FSStore struct {
	root string
}

// NewFSStore returns a filesystem store rooted at root, creating it if needed.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		root = filepath.Join("media", "archives")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive root %s: %w", root, err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) Driver() Driver { return DriverFilesystem }

// sanitizeKey forbids keys that would escape the root.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") || strings.HasPrefix(key, `\`) {
		return "", fmt.Errorf("invalid absolute key %q", key)
	}
	clean := filepath.ToSlash(filepath.Clean(key))
	if clean == ".." || strings.HasPrefix(clean, "../") || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key traversal %q", key)
	}
	return clean, nil
}

func (s *FSStore) pathFor(key string) (string, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(k)), nil
}

func (s *FSStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return Info{}, err
	}
	if _, err := os.Stat(path); err == nil {
		return Info{}, fmt.Errorf("%s: %w", key, ErrExists)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Info{}, err
	}

	// stream to a temp file, then move into place
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return Info{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		_ = tmp.Close()
		return Info{}, fmt.Errorf("failed to write archive %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return Info{}, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Info{}, err
	}

	st, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Key:          key,
		Size:         size,
		ContentType:  contentType,
		ETag:         hex.EncodeToString(h.Sum(nil)),
		LastModified: st.ModTime().UTC(),
	}, nil
}

func (s *FSStore) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return Info{}, nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Info{}, nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return Info{}, nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return Info{}, nil, err
	}
	return Info{Key: key, Size: st.Size(), LastModified: st.ModTime().UTC()}, f, nil
}

func (s *FSStore) Delete(ctx context.Context, key string) (bool, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *FSStore) List(ctx context.Context, prefix string) ([]Info, error) {
	var infos []Info
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}
		st, err := d.Info()
		if err != nil {
			return err
		}
		infos = append(infos, Info{Key: key, Size: st.Size(), LastModified: st.ModTime().UTC()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}
