package backup

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
)

const archivePrefix = "backup-"

// writeArchive zips dataDir into a new archive under backupDir and returns
// its path. The backup directory itself is excluded when nested under the
// data directory, as are other temporary archives.
func writeArchive(ctx context.Context, dataDir, backupDir string) (string, error) {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	name := fmt.Sprintf("%s%s-%s.zip", archivePrefix,
		time.Now().UTC().Format("20060102T150405Z"), uuid.NewString()[:8])
	target := filepath.Join(backupDir, name)

	out, err := os.CreateTemp(backupDir, ".partial-*.zip")
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	tmpPath := out.Name()
	cleanup := func() {
		_ = out.Close()
		_ = os.Remove(tmpPath)
	}

	writer := zip.NewWriter(out)
	absBackupDir, err := filepath.Abs(backupDir)
	if err != nil {
		cleanup()
		return "", fmt.Errorf("resolve backup directory: %w", err)
	}

	walkErr := filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if abs == absBackupDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		// In-flight archives from a concurrent backup are not data.
		if strings.HasPrefix(d.Name(), ".partial-") {
			return nil
		}

		rel, err := filepath.Rel(dataDir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		header.Method = zip.Deflate

		dst, err := writer.CreateHeader(header)
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(dst, src)
		return err
	})
	if walkErr != nil {
		_ = writer.Close()
		cleanup()
		return "", fmt.Errorf("archive data directory: %w", walkErr)
	}

	if err := writer.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("publish archive: %w", err)
	}
	return target, nil
}

// pruneArchives removes the oldest archives beyond retain. A retain value of
// 0 disables pruning.
func pruneArchives(backupDir string, retain int) error {
	if retain <= 0 {
		return nil
	}
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return fmt.Errorf("read backup directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, archivePrefix) && strings.HasSuffix(name, ".zip") {
			names = append(names, name)
		}
	}
	if len(names) <= retain {
		return nil
	}

	// Archive names embed a UTC timestamp, so lexical order is age order.
	sort.Strings(names)
	var firstErr error
	for _, name := range names[:len(names)-retain] {
		if err := os.Remove(filepath.Join(backupDir, name)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
