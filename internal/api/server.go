package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"pulse/internal/auth"
	"pulse/internal/chat"
	"pulse/internal/user"
)

const defaultRPS = 50

type Server struct {
	router *mux.Router
}

func NewServer(
	authHandler *auth.JSONHandler,
	userHandler *user.JSONHandler,
	chatHandler *chat.JSONHandler,
	gateway *chat.Gateway,
	middleware *auth.Middleware,
) *Server {
	router := mux.NewRouter()
	router.Use(Logging)
	router.Use(RateLimit(defaultRPS))

	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.HandleFunc("/ws", gateway.HandleWS).Methods("GET")

	auth.SetupJSONRoutes(router, authHandler)
	user.SetupJSONRoutes(router, userHandler, middleware.RequireAuth)
	chat.SetupJSONRoutes(router, chatHandler, middleware.RequireAuth)

	return &Server{router: router}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
