// Copyright 2025 Updrift Authors
// SPDX-License-Identifier: Apache-2.0

// Package storage writes uploaded files beneath a media root. Each upload
// request gets its own bucket directory so concurrent requests never
// collide on filenames.
package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"os"
	"path/filepath"

	"github.com/updrift/updrift/pkg/utils"

	"github.com/google/uuid"
)

var (
	// ErrInvalidFilename rejects empty names and path traversal.
	ErrInvalidFilename = errors.New("invalid upload filename")

	// ErrDiskFull is returned when the media filesystem is below the
	// configured free-space threshold.
	ErrDiskFull = errors.New("media disk free space below threshold")
)

// Config holds MediaStore configuration.
type Config struct {
	// MediaDir is the root directory for uploaded files.
	MediaDir string

	// MinFreeSpace, when set, blocks new buckets while the filesystem
	// holding MediaDir is low on space.
	MinFreeSpace *utils.FreeSpace
}

// MediaStore is the filesystem write target for uploads.
type MediaStore struct {
	root    string
	minFree *utils.FreeSpace
}

// NewMediaStore creates the media root if needed.
func NewMediaStore(cfg Config) (*MediaStore, error) {
	root := utils.ResolvePath(cfg.MediaDir)
	if root == "" {
		return nil, errors.New("media dir not configured")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &MediaStore{root: root, minFree: cfg.MinFreeSpace}, nil
}

// NewBucket creates a fresh bucket directory and returns its id, a
// 32-character hex string.
func (s *MediaStore) NewBucket() (string, error) {
	if err := s.checkFreeSpace(); err != nil {
		return "", err
	}
	u := uuid.New()
	bucket := hex.EncodeToString(u[:])
	if err := os.Mkdir(filepath.Join(s.root, bucket), 0o755); err != nil {
		return "", fmt.Errorf("create bucket dir: %w", err)
	}
	return bucket, nil
}

// Create opens a write sink for one uploaded file inside bucket. The
// filename is reduced to its base name; traversal components are
// rejected, not normalized away.
func (s *MediaStore) Create(bucket, filename string) (*FileSink, error) {
	name := filepath.Base(filename)
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) || name != filename {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	f, err := os.Create(filepath.Join(s.root, bucket, name))
	if err != nil {
		return nil, fmt.Errorf("create media file: %w", err)
	}
	return &FileSink{file: f, hasher: utils.Sha256PoolGetHasher()}, nil
}

// Path returns the absolute path of a stored file.
func (s *MediaStore) Path(bucket, filename string) string {
	return filepath.Join(s.root, bucket, filename)
}

func (s *MediaStore) checkFreeSpace() error {
	if s.minFree == nil {
		return nil
	}
	total, free, err := utils.DiskStatus(s.root)
	if err != nil || total == 0 {
		// Stat failures never block uploads.
		return nil
	}
	percent := float32(free) / float32(total) * 100
	if low, detail := s.minFree.IsLow(free, percent); low {
		return fmt.Errorf("%w: %s", ErrDiskFull, detail)
	}
	return nil
}

// FileSink streams one uploaded file to disk while maintaining a running
// sha256 of its content.
type FileSink struct {
	file   *os.File
	hasher hash.Hash
	size   int64
}

func (f *FileSink) Write(p []byte) (int, error) {
	n, err := f.file.Write(p)
	f.size += int64(n)
	f.hasher.Write(p[:n])
	return n, err
}

// Size returns the number of bytes written so far.
func (f *FileSink) Size() int64 {
	return f.size
}

// Checksum returns the hex sha256 of everything written. Valid only
// before Close, which returns the hasher to its pool.
func (f *FileSink) Checksum() string {
	return hex.EncodeToString(f.hasher.Sum(nil))
}

func (f *FileSink) Close() error {
	if f.hasher != nil {
		utils.Sha256PoolPutHasher(f.hasher)
		f.hasher = nil
	}
	return f.file.Close()
}
