package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
)

var compress = chimw.Compress(gzip.DefaultCompression, "text/html", "application/json")

type gzipBody struct {
	*gzip.Reader
	raw io.Closer
}

func (b gzipBody) Close() error {
	_ = b.Reader.Close()
	return b.raw.Close()
}

// GzipMiddleware распаковывает тело запроса с Content-Encoding: gzip
// и сжимает JSON и HTML ответы для клиентов, принимающих gzip.
func GzipMiddleware(next http.Handler) http.Handler {
	compressed := compress(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			zr, err := gzip.NewReader(r.Body)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid gzip body")
				return
			}
			r.Body = gzipBody{Reader: zr, raw: r.Body}
			r.Header.Del("Content-Encoding")
			r.Header.Del("Content-Length")
			r.ContentLength = -1
		}

		compressed.ServeHTTP(w, r)
	})
}
