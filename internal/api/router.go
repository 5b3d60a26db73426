package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

// RouterOptions tunes the middleware stack.
type RouterOptions struct {
	RateLimit float64 // requests per second per client IP; 0 disables
	RateBurst int
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger())
	router.Use(ErrorHandler())
	if opts.RateLimit > 0 {
		router.Use(RateLimiter(rate.Limit(opts.RateLimit), opts.RateBurst))
	}

	router.GET("/health", h.Health)

	api := router.Group("/api/v1")
	{
		api.GET("/backtest", h.RunBacktest)
		api.GET("/backtest/:symbol/last", h.LastRun)
		api.GET("/backtest/:symbol/last/table.csv", h.LastTableCSV)
		api.GET("/backtest/:symbol/last/profile.csv", h.LastProfileCSV)
	}

	router.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	return router
}

// NewServer wraps handler with CORS. An empty origin list allows any origin.
func NewServer(addr string, handler http.Handler, allowedOrigins []string) *http.Server {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         int((12 * time.Hour).Seconds()),
	})
	return &http.Server{
		Addr:              addr,
		Handler:           c.Handler(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
