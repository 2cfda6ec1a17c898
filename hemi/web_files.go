// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// File stores provide files to directory handlers.

package hemi

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// File is an opened file in a FileStore. Close must be called when done.
type File interface {
	io.ReaderAt
	Size() int64
	ModTime() time.Time
	Close() error
}

// FileStore opens files by slash-separated paths relative to its root.
type FileStore interface {
	Open(path string) (File, error)
}

// storeError maps errors of file stores to HTTP errors.
func storeError(err error) error {
	if _, ok := asHTTPError(err); ok {
		return err
	}
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return NewHTTPError(StatusInternalServerError, err.Error())
}

// storeClean cleans a slash-separated path. Paths escaping the root result in ErrForbidden.
func storeClean(path string) (string, error) {
	var parts []string
	for _, part := range strings.Split(path, "/") {
		switch part {
		case "", ".":
		case "..":
			if len(parts) == 0 {
				return "", ErrForbidden
			}
			parts = parts[:len(parts)-1]
		default:
			if strings.IndexByte(part, 0) != -1 || strings.IndexByte(part, '\\') != -1 {
				return "", ErrForbidden
			}
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "", ErrNotFound
	}
	return strings.Join(parts, "/"), nil
}

// DirStore serves files from a directory in the OS file system. Modification times are those of the files. Small files are cached in memory, large files are cached as opened files, both until cacheTimeout.
type DirStore struct {
	// States
	dir           string
	smallFileSize int64
	cacheTimeout  time.Duration
	rwMutex       sync.RWMutex // protects fields below
	entries       map[string]*dirEntry
	nextSweep     time.Time
}

// NewDirStore creates a DirStore. smallFileSize <= 0 disables caching.
func NewDirStore(dir string, smallFileSize int64, cacheTimeout time.Duration) *DirStore {
	s := new(DirStore)
	s.dir = dir
	s.smallFileSize = smallFileSize
	s.cacheTimeout = cacheTimeout
	s.entries = make(map[string]*dirEntry)
	return s
}

func (s *DirStore) Dir() string { return s.dir }

func (s *DirStore) Open(path string) (File, error) {
	clean, err := storeClean(path)
	if err != nil {
		return nil, err
	}
	if s.smallFileSize <= 0 {
		file, err := os.Open(filepath.Join(s.dir, filepath.FromSlash(clean)))
		if err != nil {
			return nil, storeError(err)
		}
		info, err := file.Stat()
		if err != nil {
			file.Close()
			return nil, storeError(err)
		}
		if info.IsDir() {
			file.Close()
			return nil, ErrNotFound
		}
		return &osFile{file: file, info: info}, nil
	}
	now := time.Now()
	s.sweep(now)
	if entry := s.getEntry(clean, now); entry != nil {
		return entry.open(), nil
	}
	entry, err := s.newEntry(clean, now)
	if err != nil {
		return nil, storeError(err)
	}
	return entry.open(), nil
}

func (s *DirStore) getEntry(path string, now time.Time) *dirEntry {
	s.rwMutex.RLock()
	defer s.rwMutex.RUnlock()

	entry, ok := s.entries[path]
	if !ok || !entry.last.After(now) {
		return nil
	}
	if entry.isLarge() {
		entry.addRef()
	}
	return entry
}
func (s *DirStore) newEntry(path string, now time.Time) (*dirEntry, error) {
	file, err := os.Open(filepath.Join(s.dir, filepath.FromSlash(path)))
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, ErrNotFound
	}
	entry := new(dirEntry)
	entry.info = info
	if info.Size() <= s.smallFileSize {
		text := make([]byte, info.Size())
		if _, err := io.ReadFull(file, text); err != nil {
			file.Close()
			return nil, err
		}
		file.Close()
		entry.text = text
	} else { // large file
		entry.file = file
		entry.nRef.Store(2) // the store and the caller
	}
	entry.last = now.Add(s.cacheTimeout)

	s.rwMutex.Lock()
	if old, ok := s.entries[path]; ok && old.isLarge() {
		old.decRef()
	}
	s.entries[path] = entry
	s.rwMutex.Unlock()

	if DebugLevel() >= 2 {
		Printf("dirstore entry created: %s\n", path)
	}
	return entry, nil
}

// sweep deletes expired entries, at most once per second.
func (s *DirStore) sweep(now time.Time) {
	s.rwMutex.Lock()
	defer s.rwMutex.Unlock()

	if now.Before(s.nextSweep) {
		return
	}
	s.nextSweep = now.Add(time.Second)
	for path, entry := range s.entries {
		if entry.last.After(now) {
			continue
		}
		if entry.isLarge() {
			entry.decRef()
		}
		delete(s.entries, path)
		if DebugLevel() >= 2 {
			Printf("dirstore entry deleted: %s\n", path)
		}
	}
}

// Clear deletes all cached entries. Files in use stay open until they are closed.
func (s *DirStore) Clear() {
	s.rwMutex.Lock()
	defer s.rwMutex.Unlock()

	for path, entry := range s.entries {
		if entry.isLarge() {
			entry.decRef()
		}
		delete(s.entries, path)
	}
}

// dirEntry
type dirEntry struct {
	info fs.FileInfo
	text []byte       // content of small file
	file *os.File     // only for large file
	last time.Time    // expire time
	nRef atomic.Int64 // only for large file
}

func (e *dirEntry) isLarge() bool { return e.file != nil }

func (e *dirEntry) addRef() {
	e.nRef.Add(1)
}
func (e *dirEntry) decRef() {
	if e.nRef.Add(-1) == 0 {
		if DebugLevel() >= 2 {
			Printf("dirstore large entry closed: %s\n", e.file.Name())
		}
		e.file.Close()
	}
}

func (e *dirEntry) open() File {
	if e.isLarge() {
		return &entryFile{entry: e}
	}
	return &memFile{Reader: bytes.NewReader(e.text), modTime: e.info.ModTime()}
}

// entryFile is a large file shared through a dirEntry.
type entryFile struct {
	entry  *dirEntry
	closed atomic.Bool
}

func (f *entryFile) ReadAt(p []byte, off int64) (int, error) { return f.entry.file.ReadAt(p, off) }
func (f *entryFile) Size() int64                             { return f.entry.info.Size() }
func (f *entryFile) ModTime() time.Time                      { return f.entry.info.ModTime() }
func (f *entryFile) Close() error {
	if f.closed.CompareAndSwap(false, true) {
		f.entry.decRef()
	}
	return nil
}

// osFile is an uncached file in the OS file system.
type osFile struct {
	file *os.File
	info fs.FileInfo
}

func (f *osFile) ReadAt(p []byte, off int64) (int, error) { return f.file.ReadAt(p, off) }
func (f *osFile) Size() int64                             { return f.info.Size() }
func (f *osFile) ModTime() time.Time                      { return f.info.ModTime() }
func (f *osFile) Close() error                            { return f.file.Close() }

// memFile is a file in memory.
type memFile struct {
	*bytes.Reader
	modTime time.Time
}

func (f *memFile) ModTime() time.Time { return f.modTime }
func (f *memFile) Close() error       { return nil }

// FSStore serves files from an fs.FS, typically an embedded tree of the application. All files share one modification time, usually the time the application was installed.
type FSStore struct {
	// States
	fsys    fs.FS
	modTime time.Time
}

func NewFSStore(fsys fs.FS, modTime time.Time) *FSStore {
	return &FSStore{fsys: fsys, modTime: modTime}
}

func (s *FSStore) ModTime() time.Time { return s.modTime }

func (s *FSStore) Open(path string) (File, error) {
	clean, err := storeClean(path)
	if err != nil {
		return nil, err
	}
	file, err := s.fsys.Open(clean)
	if err != nil {
		return nil, storeError(err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, storeError(err)
	}
	if info.IsDir() {
		file.Close()
		return nil, ErrNotFound
	}
	if readerAt, ok := file.(io.ReaderAt); ok {
		return &fsFile{file: file, readerAt: readerAt, size: info.Size(), modTime: s.modTime}, nil
	}
	text, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		return nil, storeError(err)
	}
	return &memFile{Reader: bytes.NewReader(text), modTime: s.modTime}, nil
}

// fsFile is a file in an fs.FS that supports random access.
type fsFile struct {
	file     fs.File
	readerAt io.ReaderAt
	size     int64
	modTime  time.Time
}

func (f *fsFile) ReadAt(p []byte, off int64) (int, error) { return f.readerAt.ReadAt(p, off) }
func (f *fsFile) Size() int64                             { return f.size }
func (f *fsFile) ModTime() time.Time                      { return f.modTime }
func (f *fsFile) Close() error                            { return f.file.Close() }
