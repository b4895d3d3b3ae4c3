package middleware

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			begin := time.Now()
			resp := newResponseWriter(w)

			next.ServeHTTP(resp, r)

			log.Debugf(" ====> request [%s] path: [%s] status: %d took: %s [UA: %s]",
				r.Method, r.URL.Path, resp.statusCode, time.Since(begin), r.Header.Get("User-Agent"))
		})
	}
}
