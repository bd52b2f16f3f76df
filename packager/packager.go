// Package packager finalizes a generated output directory into a deliverable:
// an archive of the generated files and the reproducibility record.
package packager

import (
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zip"

	"github.com/benn-herrera/loadergen/request"
)

// ArchiveName is the fixed name of the archive inside a deliverable.
const ArchiveName = "loadergen.zip"

// Package archives every file below dir except the archive itself, writes
// the reproducibility record for form and returns the deliverable id, the
// base name of dir. It must only be called once all generation succeeded.
func Package(dir string, form url.Values) (string, error) {
	files, err := collect(dir)
	if err != nil {
		return "", err
	}
	if err := writeArchive(dir, files); err != nil {
		return "", err
	}
	record := request.EncodeRecord(form)
	if err := os.WriteFile(filepath.Join(dir, request.RecordFile), []byte(record), 0o640); err != nil {
		return "", fmt.Errorf("writing record: %w", err)
	}
	return filepath.Base(dir), nil
}

// collect returns the slash-separated relative names of the regular files
// below dir, sorted, excluding the archive.
func collect(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == ArchiveName {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func writeArchive(dir string, files []string) (err error) {
	tmp, err := os.CreateTemp(dir, ".archive-*")
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	zw := zip.NewWriter(tmp)
	for _, name := range files {
		if err := addFile(zw, dir, name); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, ArchiveName)); err != nil {
		return fmt.Errorf("renaming archive: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, dir, name string) error {
	path := filepath.Join(dir, filepath.FromSlash(name))
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}
	return nil
}
