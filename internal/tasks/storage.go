package tasks

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxRecordSize bounds a single stored record when reading it back.
const maxRecordSize = 16 << 20

// Storage persists records produced by tasks and returns where they went.
type Storage interface {
	// Put writes records as newline delimited JSON under a name derived from
	// prefix and returns the location and the number of records written.
	Put(ctx context.Context, prefix string, records []any) (uri string, count int, err error)
}

// FileStorage writes records to files under Dir. With Compress set the
// files are snappy framed and end in .jsonl.sz instead of .jsonl.
type FileStorage struct {
	Dir      string
	Compress bool
}

// NewFileStorage creates dir if needed and returns a storage writing to it.
func NewFileStorage(dir string, compress bool) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ErrStorage.MsgErr("unable to create storage directory", err)
	}
	return &FileStorage{Dir: dir, Compress: compress}, nil
}

func (s *FileStorage) Put(ctx context.Context, prefix string, records []any) (string, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	name := sanitizeName(prefix) + "-" + uuid.NewString() + ".jsonl"
	if s.Compress {
		name += ".sz"
	}
	path := filepath.Join(s.Dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", 0, ErrStorage.MsgErr("unable to create "+path, err)
	}
	count, werr := writeRecords(f, records, s.Compress)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(path)
		return "", 0, ErrStorage.MsgErr("unable to write "+path, werr)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + filepath.ToSlash(abs), count, nil
}

func writeRecords(w io.Writer, records []any, compress bool) (int, error) {
	var sw *snappy.Writer
	if compress {
		sw = snappy.NewBufferedWriter(w)
		w = sw
	}
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	count := 0
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return count, err
		}
		count++
	}
	if err := bw.Flush(); err != nil {
		return count, err
	}
	if sw != nil {
		if err := sw.Close(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// ReadRecords decodes every record of a file written by FileStorage into a
// generic value, transparently decompressing .sz files.
func ReadRecords(path string) ([]any, error) {
	f, err := os.Open(strings.TrimPrefix(path, "file://"))
	if err != nil {
		return nil, ErrStorage.MsgErr("unable to open "+path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".sz") {
		r = snappy.NewReader(f)
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxRecordSize)
	var out []any
	for sc.Scan() {
		line := sc.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var rec any
		if err := json.Unmarshal(line, &rec); err != nil {
			return out, ErrStorage.MsgErr("unable to decode "+path, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return out, ErrStorage.MsgErr("unable to read "+path, err)
	}
	return out, nil
}

func sanitizeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
	if s == "" {
		return "records"
	}
	return s
}
