package fsroot

import (
	"bytes"
	"context"
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// ArchiveContentType is the mime type of every archive.
const ArchiveContentType = "application/zip"

// Member is a top-level archive input. A file is stored as Name. A
// directory contributes every regular file below it as Name/<relative
// path>, or just <relative path> when Name is empty.
type Member struct {
	Path string
	Name string
}

// ArchiveReport summarizes a written archive.
type ArchiveReport struct {
	Files   int
	Bytes   int64
	Skipped SkipLog
}

// SelectionArchiveName names the archive for a list of selected entries.
func SelectionArchiveName(names []string) string {
	if len(names) == 1 {
		if base := path.Base(cleanArchiveName(names[0])); base != "." && base != "" {
			return base + ".zip"
		}
	}

	return "files.zip"
}

// SubtreeArchiveName names the archive exporting dir.
func (r *Root) SubtreeArchiveName(dir string) string {
	if dir == r.path {
		return "root.zip"
	}

	return filepath.Base(dir) + ".zip"
}

// WriteArchive streams a deflate zip of members to w, one entry at a time
// as they are discovered. Each entry is compressed in full before it is
// written, so an entry is either complete or absent. Members outside the root and entries that cannot
// be read are skipped. The returned error is non-nil only when w fails or
// ctx is done, in which case the archive is incomplete.
func (r *Root) WriteArchive(ctx context.Context, w io.Writer, members []Member) (*ArchiveReport, error) {
	zw := zip.NewWriter(w)

	a := &archiver{
		root:   r,
		zw:     zw,
		report: &ArchiveReport{},
		names:  make(map[string]struct{}),
	}

	for _, m := range members {
		if err := ctx.Err(); err != nil {
			return a.report, err
		}

		if err := a.addMember(ctx, m); err != nil {
			return a.report, err
		}
	}

	if err := zw.Close(); err != nil {
		return a.report, fmt.Errorf("finish archive: %w", err)
	}

	return a.report, nil
}

type archiver struct {
	root   *Root
	zw     *zip.Writer
	report *ArchiveReport
	names  map[string]struct{}
}

func (a *archiver) addMember(ctx context.Context, m Member) error {
	canonical, err := a.root.canonical(m.Path)
	if err != nil {
		a.report.Skipped.add(m.Path, err)
		return nil
	}
	if !a.root.Contains(canonical) {
		a.report.Skipped.add(m.Path, ErrForbidden)
		return nil
	}

	info, err := a.root.fsys.Stat(canonical)
	if err != nil {
		a.report.Skipped.add(m.Path, err)
		return nil
	}

	prefix := cleanArchiveName(m.Name)
	if !info.IsDir() {
		if prefix == "" {
			prefix = filepath.Base(canonical)
		}
		return a.addFile(canonical, prefix)
	}

	w := &walker{fsys: a.root.fsys, includeHidden: true, skips: &a.report.Skipped}
	return w.walk(ctx, canonical, func(p string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(canonical, p)
		if err != nil {
			return nil
		}

		name := filepath.ToSlash(rel)
		if prefix != "" {
			name = prefix + "/" + name
		}

		src := p
		if d.Type()&fs.ModeSymlink != 0 {
			target, err := a.root.canonical(p)
			if err != nil {
				a.report.Skipped.add(p, err)
				return nil
			}
			if !a.root.Contains(target) {
				a.report.Skipped.add(p, ErrForbidden)
				return nil
			}
			src = target
		}

		return a.addFile(src, name)
	})
}

// addFile deflates one regular file into a spool and only then appends it
// to the archive, so a source that fails partway leaves no entry behind.
// Only failures of the output are returned.
func (a *archiver) addFile(src, name string) error {
	if _, dup := a.names[name]; dup {
		a.report.Skipped.add(src, fmt.Errorf("duplicate archive name %q", name))
		return nil
	}

	f, err := a.root.fsys.Open(src)
	if err != nil {
		a.report.Skipped.add(src, err)
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		a.report.Skipped.add(src, err)
		return nil
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		a.report.Skipped.add(src, err)
		return nil
	}
	header.Name = name
	header.Method = zip.Deflate

	sp := &spool{limit: spoolMemoryLimit}
	defer sp.Close()

	n, sum, err := a.deflate(sp, f)
	if err != nil {
		a.report.Skipped.add(src, err)
		return nil
	}

	header.CRC32 = sum
	header.UncompressedSize64 = uint64(n)
	header.CompressedSize64 = uint64(sp.Len())

	compressed, err := sp.Reader()
	if err != nil {
		a.report.Skipped.add(src, err)
		return nil
	}

	dst, err := a.zw.CreateRaw(header)
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	a.names[name] = struct{}{}

	if _, err := io.Copy(dst, compressed); err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}

	a.report.Files++
	a.report.Bytes += n
	return nil
}

// deflate compresses all of r into sp and returns the uncompressed size and
// its CRC-32.
func (a *archiver) deflate(sp *spool, r io.Reader) (int64, uint32, error) {
	fw, err := flate.NewWriter(sp, a.root.level)
	if err != nil {
		return 0, 0, err
	}

	sum := crc32.NewIEEE()
	n, err := io.Copy(io.MultiWriter(fw, sum), r)
	if err != nil {
		return 0, 0, err
	}
	if err := fw.Close(); err != nil {
		return 0, 0, err
	}

	return n, sum.Sum32(), nil
}

// spoolMemoryLimit is how much compressed data a spool keeps in memory
// before moving to a temp file.
var spoolMemoryLimit int64 = 4 << 20

// spool holds one compressed entry, in memory up to limit and in a temp
// file beyond it.
type spool struct {
	limit int64
	buf   bytes.Buffer
	file  *os.File
	size  int64
}

func (s *spool) Write(p []byte) (int, error) {
	if s.file == nil && int64(s.buf.Len()+len(p)) > s.limit {
		f, err := os.CreateTemp("", "deskswap-spool-*")
		if err != nil {
			return 0, err
		}
		s.file = f
		if _, err := f.Write(s.buf.Bytes()); err != nil {
			return 0, err
		}
		s.buf.Reset()
	}

	var n int
	var err error
	if s.file != nil {
		n, err = s.file.Write(p)
	} else {
		n, err = s.buf.Write(p)
	}
	s.size += int64(n)
	return n, err
}

// Len is the number of bytes written so far.
func (s *spool) Len() int64 {
	return s.size
}

// Reader rewinds the spool for reading.
func (s *spool) Reader() (io.Reader, error) {
	if s.file == nil {
		return &s.buf, nil
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return s.file, nil
}

// Close drops the spooled data.
func (s *spool) Close() error {
	s.buf.Reset()
	if s.file == nil {
		return nil
	}

	name := s.file.Name()
	err := s.file.Close()
	s.file = nil
	if rmErr := os.Remove(name); err == nil {
		err = rmErr
	}
	return err
}

// cleanArchiveName turns a caller supplied name into a relative slash path
// that cannot climb out of the archive.
func cleanArchiveName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Clean("/" + name)
	return strings.TrimPrefix(name, "/")
}
