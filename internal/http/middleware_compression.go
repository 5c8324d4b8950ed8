package httpx

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// CompressionConfig holds configuration for the compression middleware.
type CompressionConfig struct {
	Level   int // gzip level 1-9; out-of-range values use the default
	MinSize int // responses shorter than this are sent uncompressed; 0 compresses everything
	Logger  *slog.Logger
}

//nolint:gochecknoglobals // read-only set of media types worth compressing
var compressibleTypes = map[string]bool{
	"text/html":              true,
	"text/css":               true,
	"text/plain":             true,
	"text/javascript":        true,
	"application/javascript": true,
	"application/json":       true,
	"image/svg+xml":          true,
	// Prometheus text exposition
	"application/openmetrics-text": true,
}

// writerPool holds reusable gzip writers of one level.
type writerPool struct {
	level int
	pool  sync.Pool
}

func newWriterPool(level int) *writerPool {
	if level < gzip.BestSpeed || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	p := &writerPool{level: level}
	p.pool.New = func() any {
		w, err := gzip.NewWriterLevel(io.Discard, p.level)
		if err != nil {
			return gzip.NewWriter(io.Discard)
		}
		return w
	}
	return p
}

func (p *writerPool) get(dst io.Writer) *gzip.Writer {
	w, ok := p.pool.Get().(*gzip.Writer)
	if !ok {
		w = gzip.NewWriter(io.Discard)
	}
	w.Reset(dst)
	return w
}

func (p *writerPool) put(w *gzip.Writer) {
	w.Reset(io.Discard)
	p.pool.Put(w)
}

// Compression returns a middleware that gzips responses when the client
// accepts gzip, the method is not HEAD, the status carries a body, and the
// content type is compressible.
func Compression(cfg CompressionConfig) func(http.Handler) http.Handler {
	pool := newWriterPool(cfg.Level)
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead || !acceptsGzip(r.Header.Get("Accept-Encoding")) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Accept-Encoding")
			gzw := &gzipResponseWriter{ResponseWriter: w, pool: pool, minSize: cfg.MinSize}
			next.ServeHTTP(gzw, r)

			if err := gzw.finish(); err != nil {
				logger.ErrorContext(r.Context(), "closing gzip writer failed", "error", err)
			}
		})
	}
}

// acceptsGzip reports whether gzip is listed with a non-zero q-value.
func acceptsGzip(acceptEncoding string) bool {
	for _, part := range strings.Split(acceptEncoding, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "gzip" && name != "*" {
			continue
		}
		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				q = f
			}
		}
		return q > 0
	}
	return false
}

func isCompressibleContentType(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return compressibleTypes[strings.TrimSpace(strings.ToLower(mediaType))]
}

// gzipResponseWriter decides at WriteHeader time whether to compress, and
// buffers up to minSize bytes before committing.
type gzipResponseWriter struct {
	http.ResponseWriter
	pool    *writerPool
	minSize int

	status      int
	wroteHeader bool // header decision made
	committed   bool // status sent to the client
	compress    bool
	gz          *gzip.Writer
	buf         []byte
}

func (w *gzipResponseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = status

	h := w.Header()
	w.compress = status >= http.StatusOK &&
		status != http.StatusNoContent &&
		status != http.StatusNotModified &&
		h.Get("Content-Encoding") == "" &&
		isCompressibleContentType(h.Get("Content-Type"))

	if !w.compress || w.minSize <= 0 {
		w.commit()
	}
}

// commit sends the status line, switching to gzip when compressing.
func (w *gzipResponseWriter) commit() {
	if w.committed {
		return
	}
	w.committed = true
	if w.compress {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
		w.gz = w.pool.get(w.ResponseWriter)
	}
	w.ResponseWriter.WriteHeader(w.status)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}

	if !w.committed {
		w.buf = append(w.buf, b...)
		if len(w.buf) < w.minSize {
			return len(b), nil
		}
		w.commit()
		buffered := w.buf
		w.buf = nil
		if _, err := w.gz.Write(buffered); err != nil {
			return 0, err
		}
		return len(b), nil
	}

	if w.gz != nil {
		return w.gz.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

// finish flushes whatever is pending once the handler returns.
func (w *gzipResponseWriter) finish() error {
	if w.wroteHeader && !w.committed {
		// below minSize: send as-is
		w.compress = false
		w.committed = true
		w.ResponseWriter.WriteHeader(w.status)
		if len(w.buf) > 0 {
			if _, err := w.ResponseWriter.Write(w.buf); err != nil {
				return err
			}
		}
		return nil
	}
	if w.gz == nil {
		return nil
	}
	err := w.gz.Close()
	w.pool.put(w.gz)
	w.gz = nil
	return err
}

// Flush implements http.Flusher for streaming support.
func (w *gzipResponseWriter) Flush() {
	if w.wroteHeader && !w.committed {
		w.commit()
		if len(w.buf) > 0 {
			_, _ = w.gz.Write(w.buf)
			w.buf = nil
		}
	}
	if w.gz != nil {
		_ = w.gz.Flush()
	}
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack implements http.Hijacker.
func (w *gzipResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, errors.New("http.Hijacker not supported")
}
