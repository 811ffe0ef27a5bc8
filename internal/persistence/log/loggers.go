package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"sleepwarp.ai/internal/sim/world"
)

type JSONLZstdWriter struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	dir := filepath.Dir(w.pathForHour(hour))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// WarpLogger writes one JSONL entry per non-idle acceleration pass and one per
// discharge (compressed), each stream in its own hourly-rotated file set.
type WarpLogger struct {
	warps      *JSONLZstdWriter
	discharges *JSONLZstdWriter
}

func NewWarpLogger(worldDir string) *WarpLogger {
	return &WarpLogger{
		warps:      NewJSONLZstdWriter(filepath.Join(worldDir, "warps"), "warps"),
		discharges: NewJSONLZstdWriter(filepath.Join(worldDir, "discharges"), "discharges"),
	}
}

func (l *WarpLogger) WriteWarp(v world.WarpLogEntry) error        { return l.warps.Write(v) }
func (l *WarpLogger) WriteDischarge(v world.DischargeEntry) error { return l.discharges.Write(v) }

func (l *WarpLogger) Close() error {
	err := l.warps.Close()
	if err2 := l.discharges.Close(); err == nil {
		err = err2
	}
	return err
}

// MultiLogger fans entries out to several loggers. The first error wins but
// every logger still sees the entry.
type MultiLogger []world.WarpLogger

func (m MultiLogger) WriteWarp(v world.WarpLogEntry) error {
	var first error
	for _, l := range m {
		if l == nil {
			continue
		}
		if err := l.WriteWarp(v); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m MultiLogger) WriteDischarge(v world.DischargeEntry) error {
	var first error
	for _, l := range m {
		if l == nil {
			continue
		}
		if err := l.WriteDischarge(v); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ReadJSONLZstd decodes every line of a .jsonl.zst file into fn. Decoding
// stops at the first error returned by fn.
func ReadJSONLZstd(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return sc.Err()
}
