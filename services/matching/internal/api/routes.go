package api

import "net/http"

func RegisterRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /search", handler.HandleSearch)
	mux.HandleFunc("POST /analyze", handler.HandleAnalyze)
	mux.HandleFunc("GET /health", handler.HandleHealth)
}
