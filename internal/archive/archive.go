package archive

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// File is one archive entry.
type File struct {
	Name string
	Data []byte
}

// MaxEntrySize bounds a single decompressed entry on read.
const MaxEntrySize = 256 << 20

// Write packs files into a zip archive. Entries are stored uncompressed:
// images are already compressed and data.json is small.
func Write(w io.Writer, files []File) error {
	zw := zip.NewWriter(w)
	now := time.Now()
	for _, f := range files {
		name, err := cleanName(f.Name)
		if err != nil {
			zw.Close()
			return err
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Store,
			Modified: now,
		})
		if err != nil {
			zw.Close()
			return fmt.Errorf("create entry %s: %w", name, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			zw.Close()
			return fmt.Errorf("write entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	return nil
}

// Read unpacks every regular file in a zip archive. Directory entries are
// skipped; entries with unsafe names are rejected.
func Read(data []byte) ([]File, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	var files []File
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		name, err := cleanName(zf.Name)
		if err != nil {
			return nil, err
		}
		if zf.UncompressedSize64 > MaxEntrySize {
			return nil, fmt.Errorf("entry %s: too large (%d bytes)", name, zf.UncompressedSize64)
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", name, err)
		}
		body, err := io.ReadAll(io.LimitReader(rc, MaxEntrySize+1))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", name, err)
		}
		if len(body) > MaxEntrySize {
			return nil, fmt.Errorf("entry %s: too large", name)
		}
		files = append(files, File{Name: name, Data: body})
	}
	return files, nil
}

// Find returns the entry named name.
func Find(files []File, name string) (File, bool) {
	for _, f := range files {
		if f.Name == name {
			return f, true
		}
	}
	return File{}, false
}

func cleanName(name string) (string, error) {
	n := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if n == "." || strings.HasPrefix(n, "/") || n == ".." || strings.HasPrefix(n, "../") {
		return "", fmt.Errorf("unsafe entry name %q", name)
	}
	return n, nil
}
