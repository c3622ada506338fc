package middleware

import (
	"log"
	"net/http"
)

// RequestLogger logs every request before handing it down the chain.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[%s]%s from [Host:%s | IP:%s]\n", r.Method, r.RequestURI, r.Host, r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}
