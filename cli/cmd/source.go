package cmd

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// stdinSource names standard input among the sources.
const stdinSource = "-"

// Sources is an ordered, de-duplicated set of opened input files.
type Sources struct {
	names   []string
	readers []io.Reader
	closers []io.Closer
}

// fileKey identifies a file by device and inode, so that a file named twice
// through different paths or links is read once.
type fileKey struct {
	dev uint64
	ino uint64
}

// OpenSources opens each named file in order. The name "-" reads stdin; it
// is read at most once, after every regular file.
func OpenSources(names []string, stdin io.Reader) (*Sources, error) {
	if len(names) == 0 {
		return nil, ErrNoSource
	}

	var (
		src      Sources
		useStdin bool
	)

	seen := make(map[fileKey]struct{}, len(names))

	for _, name := range names {
		if name == stdinSource {
			useStdin = true

			continue
		}

		f, err := openUnique(name, seen)
		if err != nil {
			_ = src.Close()

			return nil, ErrOpenSource.Wrap(err).With(slog.String("file", name))
		}

		if f == nil {
			continue
		}

		src.names = append(src.names, name)
		src.readers = append(src.readers, f)
		src.closers = append(src.closers, f)
	}

	if useStdin {
		src.names = append(src.names, stdinSource)
		src.readers = append(src.readers, stdin)
	}

	return &src, nil
}

// openUnique opens name unless a file with the same identity was already
// opened, in which case it returns nil and no error.
func openUnique(name string, seen map[fileKey]struct{}) (*os.File, error) {
	resolved, err := filepath.EvalSymlinks(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, err
	}

	if key, ok := makeFileKey(info); ok {
		if _, dup := seen[key]; dup {
			return nil, nil
		}

		seen[key] = struct{}{}
	}

	return os.Open(resolved)
}

func makeFileKey(info os.FileInfo) (fileKey, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileKey{}, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}

// Names returns the sources in reading order.
func (s *Sources) Names() []string { return s.names }

// Reader reads every source in order, separating sources with a newline so
// tokens never join across files.
func (s *Sources) Reader() io.Reader {
	rs := make([]io.Reader, 0, 2*len(s.readers))

	for i, r := range s.readers {
		if i > 0 {
			rs = append(rs, strings.NewReader("\n"))
		}

		rs = append(rs, r)
	}

	return io.MultiReader(rs...)
}

// Close closes every opened file.
func (s *Sources) Close() error {
	var errs []error

	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}

	return errors.Join(errs...)
}
