package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"mlboard/api/errs"
	"mlboard/api/types"
	"mlboard/auth"
	"mlboard/controllers"
	"mlboard/metrics"
)

func ZLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)

		if len(c.Errors) != 0 {
			err := c.Errors.Last().Err

			if !c.Writer.Written() {
				statusCode, knownErr := errs.StatusOf(err)
				message := http.StatusText(statusCode)
				if knownErr != nil {
					message = knownErr.Error()
				}
				if statusCode >= http.StatusInternalServerError {
					log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("")
				}
				c.AbortWithStatusJSON(statusCode, types.Response{
					Status:  "error",
					Message: message,
				})
			}
		}
		log.Debug().
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("")
	}
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestsTotal.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Inc()
		metrics.RequestDuration.
			WithLabelValues(c.Request.Method, route).
			Observe(time.Since(startTime).Seconds())
	}
}

// NewRouter wires every endpoint. Handlers under /projects/:project_id run
// behind token authentication and the project membership check.
func NewRouter(secret []byte) (*gin.Engine, error) {
	if err := types.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(MetricsMiddleware(), ZLogMiddleware(), gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, types.Response{Status: "success", Message: "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1", auth.Authenticate(secret))
	project := v1.Group("/projects/:project_id", auth.RequireMembership())
	{
		// Experiments
		project.GET("/experiments", controllers.ExperimentList)
		project.GET("/experiments/:model_id", controllers.ExperimentList)
		project.POST("/experiments", controllers.ExperimentCreate)
		project.DELETE("/experiments", controllers.ExperimentDelete)

		// Dashboard columns
		project.GET("/param-fields", controllers.ParamFields)
		project.POST("/param-fields/data", controllers.ParamData)
	}

	return router, nil
}
