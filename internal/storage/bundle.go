package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Bundle gives read-only access to the static data files shipped with
// the dashboard (result tables and GeoJSON boundaries)
type Bundle struct {
	fsys     fs.FS
	encoding encoding.Encoding
	logger   *zap.Logger
}

// NewBundle wraps a file system. charset selects how tables are decoded
// and may be "utf-8", "windows-1252", "iso-8859-1" or "iso-8859-15".
func NewBundle(fsys fs.FS, charset string, logger *zap.Logger) (*Bundle, error) {
	enc, err := lookupEncoding(charset)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bundle{fsys: fsys, encoding: enc, logger: logger}, nil
}

// NewDirBundle opens the data directory on disk. The directory is part
// of the deployment, so a missing one is an error.
func NewDirBundle(dir, charset string, logger *zap.Logger) (*Bundle, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data directory %s is not a directory", dir)
	}
	return NewBundle(os.DirFS(dir), charset, logger)
}

func lookupEncoding(charset string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, nil
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15, nil
	default:
		return nil, fmt.Errorf("unsupported charset: %q", charset)
	}
}

type decodedFile struct {
	io.Reader
	closer io.Closer
}

func (d *decodedFile) Close() error {
	return d.closer.Close()
}

// Open returns the named table decoded to UTF-8
func (b *Bundle) Open(name string) (io.ReadCloser, error) {
	f, err := b.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	b.logger.Debug("opened data file", zap.String("file", name))
	if b.encoding == unicode.UTF8 {
		return f, nil
	}
	return &decodedFile{Reader: b.encoding.NewDecoder().Reader(f), closer: f}, nil
}

// ReadFile returns the raw bytes of a bundled file
func (b *Bundle) ReadFile(name string) ([]byte, error) {
	data, err := fs.ReadFile(b.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}
