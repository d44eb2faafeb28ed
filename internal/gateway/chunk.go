package gateway

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
)

// ErrTooLarge is returned when an export exceeds the configured maximum size.
var ErrTooLarge = errors.New("export exceeds maximum size")

// readChunks drains r in chunkSize pieces into memory. Only a clean io.EOF
// marks completion; any other read error, io.ErrUnexpectedEOF from a
// dropped connection included, aborts with no partial result.
func readChunks(r io.Reader, chunkSize int, maxBytes int64, log hclog.Logger) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, chunkSize)

	for n := 1; ; n++ {
		read, err := fillChunk(r, chunk)
		if read > 0 {
			if maxBytes > 0 && int64(buf.Len()+read) > maxBytes {
				return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, maxBytes)
			}
			buf.Write(chunk[:read])
			log.Debug("export chunk received", "chunk", n, "bytes", read, "total", buf.Len())
		}

		switch {
		case err == nil:
			continue
		case err == io.EOF:
			return buf.Bytes(), nil
		default:
			return nil, fmt.Errorf("reading chunk %d: %w", n, err)
		}
	}
}

// fillChunk reads until p is full or r returns an error. Unlike io.ReadFull
// it hands back r's own error untouched, so a short final chunk ends with
// io.EOF and a truncated body keeps its io.ErrUnexpectedEOF.
func fillChunk(r io.Reader, p []byte) (int, error) {
	n := 0
	for n < len(p) {
		m, err := r.Read(p[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
