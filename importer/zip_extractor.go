package importer

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/zip"
	"golang.org/x/text/encoding/japanese"
)

// maxExtractBytes caps the uncompressed size of one archive.
const maxExtractBytes int64 = 1 << 30

// ExtractZip unpacks the archive into dest and returns the extracted file paths.
// Names that are not valid UTF-8 are decoded as Shift-JIS. Entries that would land
// outside dest fail the whole archive.
func ExtractZip(r io.ReaderAt, size int64, dest string) ([]string, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive: %w", err)
	}
	root, err := filepath.Abs(dest)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create extraction folder: %w", err)
	}

	var written int64
	var files []string
	for _, f := range zr.File {
		name, err := entryName(f)
		if err != nil {
			return nil, err
		}
		target, err := safeJoin(root, name)
		if err != nil {
			return nil, err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, err
		}
		n, err := extractFile(f, target, maxExtractBytes-written)
		if err != nil {
			return nil, err
		}
		written += n
		files = append(files, target)
	}
	return files, nil
}

func entryName(f *zip.File) (string, error) {
	if !f.NonUTF8 || utf8.ValidString(f.Name) {
		return f.Name, nil
	}
	name, err := japanese.ShiftJIS.NewDecoder().String(f.Name)
	if err != nil {
		return "", fmt.Errorf("failed to decode zip entry name %q: %w", f.Name, err)
	}
	return name, nil
}

func safeJoin(root, name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("zip entry %q has an absolute path", name)
	}
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("zip entry %q escapes the extraction folder", name)
	}
	return target, nil
}

func extractFile(f *zip.File, target string, budget int64) (int64, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, io.LimitReader(rc, budget+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	if n > budget {
		return 0, fmt.Errorf("zip archive exceeds %d uncompressed bytes", maxExtractBytes)
	}
	return n, nil
}

// FindCSVFiles returns every .csv file below root, sorted by path.
func FindCSVFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// SourceFolder is the name of the directory holding a CSV file.
func SourceFolder(path string) string {
	return filepath.Base(filepath.Dir(path))
}
