package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/bibkit/pica/internal/config"
	"github.com/bibkit/pica/internal/parser"
	"github.com/bibkit/pica/internal/types"
)

// Records can exceed the default scanner buffer by orders of magnitude;
// authority dumps with large 041A vocabularies run into megabytes.
const maxLineSize = 64 * 1024 * 1024

// recordFunc receives every parsed record. The raw line and the record's
// subfield values alias the scanner buffer and must be cloned to outlive
// the call.
type recordFunc func(seq int64, raw []byte, rec types.Record) error

// invalidFunc receives every rejected line when the skip-invalid policy
// is active.
type invalidFunc func(seq int64, raw []byte, err error) error

// streamCounts tallies one pass over the input.
type streamCounts struct {
	read    int64
	invalid int64
}

// forEachRecord streams the given files (or stdin for "-" or no files)
// through the grammar parser. Gzip input is detected by magic bytes.
// Without skip-invalid the first malformed line aborts the stream.
func forEachRecord(files []string, cfg *config.Config, fn recordFunc, onInvalid invalidFunc) (streamCounts, error) {
	if len(files) == 0 {
		files = []string{"-"}
	}

	var counts streamCounts
	var seq int64
	for _, file := range files {
		done, err := streamFile(file, cfg, &counts, &seq, fn, onInvalid)
		if err != nil {
			return counts, err
		}
		if done {
			break
		}
	}
	return counts, nil
}

func streamFile(file string, cfg *config.Config, counts *streamCounts, seq *int64, fn recordFunc, onInvalid invalidFunc) (bool, error) {
	in, err := openInput(file)
	if err != nil {
		return false, err
	}
	defer in.Close()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		n := *seq
		*seq++

		rec, err := parser.Parse(line)
		if err != nil {
			counts.invalid++
			if !cfg.Reader.SkipInvalid {
				return false, fmt.Errorf("%s: record %d: %w", file, n, err)
			}
			slog.Debug("skipped invalid record", "file", file, "record", n, "error", err)
			if onInvalid != nil {
				if err := onInvalid(n, line, err); err != nil {
					return false, err
				}
			}
			continue
		}

		counts.read++
		if err := fn(n, line, rec); err != nil {
			return false, err
		}
		if cfg.Reader.Limit > 0 && counts.read >= int64(cfg.Reader.Limit) {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return false, fmt.Errorf("%s: record exceeds %d bytes", file, maxLineSize)
		}
		return false, fmt.Errorf("%s: %w", file, err)
	}
	return false, nil
}

// openInput opens a file or stdin for "-", transparently decompressing
// gzip streams.
func openInput(path string) (io.ReadCloser, error) {
	var raw io.ReadCloser
	if path == "-" {
		raw = io.NopCloser(os.Stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		raw = f
	}

	br := bufio.NewReader(raw)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			raw.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &gzipInput{gz: gz, raw: raw}, nil
	}
	return &bufferedInput{br: br, raw: raw}, nil
}

type bufferedInput struct {
	br  *bufio.Reader
	raw io.ReadCloser
}

func (b *bufferedInput) Read(p []byte) (int, error) { return b.br.Read(p) }
func (b *bufferedInput) Close() error               { return b.raw.Close() }

type gzipInput struct {
	gz  *gzip.Reader
	raw io.ReadCloser
}

func (g *gzipInput) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipInput) Close() error {
	err := g.gz.Close()
	if cerr := g.raw.Close(); err == nil {
		err = cerr
	}
	return err
}
