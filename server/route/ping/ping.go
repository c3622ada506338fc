package ping

import (
	"net/http"

	"github.com/gorilla/mux"
)

func CreateRoute(r *mux.Router) {
	r.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})
}
