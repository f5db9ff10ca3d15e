package dataprep

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/haivivi/genderid/pkg/storage"
)

// Fetch downloads and extracts the corpus archive when the corpus
// directory does not exist yet. The archive is read from the given
// FileStore (local mirror or S3 bucket) at archivePath and unpacked
// into dataFolder. An existing corpus directory short-circuits the
// download.
func Fetch(ctx context.Context, store storage.FileStore, archivePath, dataFolder string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	corpusDir := filepath.Join(dataFolder, CorpusDirName)
	if _, err := os.Stat(corpusDir); err == nil {
		log.Info("corpus already present, skipping download", "dir", corpusDir)
		return nil
	}

	log.Info("fetching corpus archive", "archive", archivePath)
	src, err := store.Read(ctx, archivePath)
	if err != nil {
		return fmt.Errorf("dataprep: fetch archive: %w", err)
	}
	defer src.Close()

	// zip needs random access; spool the archive to a temp file first.
	tmp, err := os.CreateTemp("", "genderid-corpus-*.zip")
	if err != nil {
		return fmt.Errorf("dataprep: spool archive: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	size, err := io.Copy(tmp, src)
	if err != nil {
		return fmt.Errorf("dataprep: spool archive: %w", err)
	}
	log.Info("archive downloaded", "bytes", size)

	zr, err := zip.NewReader(tmp, size)
	if err != nil {
		return fmt.Errorf("dataprep: open archive: %w", err)
	}
	if err := extractZip(ctx, zr, dataFolder); err != nil {
		return err
	}
	log.Info("corpus extracted", "dir", dataFolder, "files", len(zr.File))
	return nil
}

// extractZip unpacks all archive entries under destDir, refusing paths
// that would escape it.
func extractZip(ctx context.Context, zr *zip.Reader, destDir string) error {
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := filepath.FromSlash(f.Name)
		if strings.Contains(name, "..") {
			return fmt.Errorf("dataprep: archive entry escapes destination: %q", f.Name)
		}
		dest := filepath.Join(destDir, name)

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return fmt.Errorf("dataprep: extract %s: %w", f.Name, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("dataprep: extract %s: %w", f.Name, err)
		}
		if err := extractFile(f, dest); err != nil {
			return fmt.Errorf("dataprep: extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
