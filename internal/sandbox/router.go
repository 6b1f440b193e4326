/**
 * @description
 * This file sets up the sandbox HTTP router using `chi`. The sandbox is an
 * in-memory stand-in for the banking API so the harness can run hermetically
 * in its own tests and in local smoke runs.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: routing and stock middleware.
 * - github.com/golang-jwt/jwt/v5: optional HS256 bearer verification.
 * - github.com/go-chi/cors: browser access for local dashboards.
 */
package sandbox

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Options configures a sandbox Server.
type Options struct {
	// BasePath prefixes every resource route, e.g. /api.
	BasePath string
	// JWTSecret enables bearer verification when non-empty.
	JWTSecret string
	// AllowedOrigins enables CORS for the listed origins when non-empty.
	AllowedOrigins []string
	Logger         *zap.Logger
}

// Server is the sandbox banking API.
type Server struct {
	opts    Options
	handler *handler
	logger  *zap.Logger
}

// New creates an empty sandbox.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("sandbox")
	return &Server{
		opts:    opts,
		handler: &handler{store: newStore(), logger: logger},
		logger:  logger,
	}
}

// Router returns the HTTP handler serving the API under opts.BasePath.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	h := s.handler
	api := func(r chi.Router) {
		if s.opts.JWTSecret != "" {
			r.Use(bearerAuth(s.opts.JWTSecret))
		}

		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.createUser)
			r.Get("/", h.listUsers)
			r.Get("/username/{username}", h.getUserByUsername)
			r.Get("/{id}", h.getUser)
			r.Put("/{id}", h.updateUser)
			r.Delete("/{id}", h.deleteUser)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", h.createAccount)
			r.Get("/", h.listAccounts)
			r.Get("/user/{userId}", h.listAccountsByUser)
			r.Get("/number/{number}", h.getAccountByNumber)
			r.Get("/{id}", h.getAccount)
			r.Put("/{id}", h.updateAccount)
			r.Delete("/{id}", h.deleteAccount)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", h.createTransaction)
			r.Get("/", h.listTransactions)
			r.Get("/account/{accountId}", h.listTransactionsByAccount)
			r.Get("/reference/{ref}", h.getTransactionByReference)
			r.Get("/{id}", h.getTransaction)
		})
	}

	base := "/" + strings.Trim(s.opts.BasePath, "/")
	if base == "/" {
		r.Group(api)
	} else {
		r.Route(base, api)
	}
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("sandbox request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// bearerAuth validates an HS256 token signed with secret.
func bearerAuth(secret string) func(http.Handler) http.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				writeError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}
			token, err := parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
