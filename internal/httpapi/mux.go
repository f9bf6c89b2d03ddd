package httpapi

import (
	"net/http"
)

func NewMux(db Pinger) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	return mux
}
