package main

import (
	"bufio"
	"encoding/gob"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"time"

	"typehide/internal/discover"
	"typehide/internal/typespan"
)

const scanCacheVersion = 1

var scanCachePathOverride string

// fileStamp identifies one version of a file on disk.
type fileStamp struct {
	Size    int64
	ModTime time.Time
}

type scanEntry struct {
	Stamp  fileStamp
	Counts map[typespan.Kind]int
}

type diskScanCache struct {
	Version      int
	Root         string
	NoIgnore     bool
	ExcludeTests bool
	Excludes     []string
	IgnoreKinds  []typespan.Kind
	Files        map[string]scanEntry
}

type scanKey struct {
	cfg     discover.Config
	ignored []typespan.Kind
}

// LoadScanCache returns the per-file results of the last scan with the same
// settings. Any mismatch is a miss, not an error.
func LoadScanCache(key scanKey) (map[string]scanEntry, bool, error) {
	path, err := scanCachePath()
	if err != nil {
		return nil, false, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var disk diskScanCache
	if err := gob.NewDecoder(bufio.NewReaderSize(f, 1<<20)).Decode(&disk); err != nil {
		return nil, false, err
	}
	if !scanCacheMatches(disk, key) {
		return nil, false, nil
	}
	return disk.Files, true, nil
}

func SaveScanCache(key scanKey, files map[string]scanEntry) error {
	path, err := scanCachePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	writer := bufio.NewWriterSize(f, 1<<20)
	disk := diskScanCache{
		Version:      scanCacheVersion,
		Root:         filepath.Clean(key.cfg.Root),
		NoIgnore:     key.cfg.NoIgnore,
		ExcludeTests: key.cfg.ExcludeTests,
		Excludes:     append([]string(nil), key.cfg.Excludes...),
		IgnoreKinds:  append([]typespan.Kind(nil), key.ignored...),
		Files:        files,
	}
	if err := gob.NewEncoder(writer).Encode(&disk); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := writer.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func scanCacheMatches(disk diskScanCache, key scanKey) bool {
	if disk.Version != scanCacheVersion {
		return false
	}
	if filepath.Clean(disk.Root) != filepath.Clean(key.cfg.Root) {
		return false
	}
	if disk.NoIgnore != key.cfg.NoIgnore || disk.ExcludeTests != key.cfg.ExcludeTests {
		return false
	}
	return slices.Equal(disk.Excludes, key.cfg.Excludes) && slices.Equal(disk.IgnoreKinds, key.ignored)
}

func scanCachePath() (string, error) {
	if scanCachePathOverride != "" {
		return scanCachePathOverride, nil
	}
	root, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "typehide", "last_scan.gob"), nil
}

func stampOf(info os.FileInfo) fileStamp {
	return fileStamp{Size: info.Size(), ModTime: info.ModTime().UTC()}
}

func (s fileStamp) same(o fileStamp) bool {
	return s.Size == o.Size && s.ModTime.Equal(o.ModTime)
}
