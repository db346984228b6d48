package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/whisperd/version"
)

// startTime records when the process started for uptime calculation.
var startTime = time.Now()

// InfoProvider contributes service-specific fields to /info.
type InfoProvider func() map[string]any

// Info returns a handler that reports service version and build information.
func Info(serviceName string, extra InfoProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := version.GetVersionInfo()
		body := gin.H{
			"service":    serviceName,
			"version":    v.Version,
			"git_commit": v.GitCommit,
			"build_time": v.BuildTime,
			"go_version": v.GoVersion,
			"uptime":     time.Since(startTime).Round(time.Second).String(),
		}
		if extra != nil {
			for k, val := range extra() {
				body[k] = val
			}
		}
		c.JSON(http.StatusOK, body)
	}
}
