package middleware

import (
	"fmt"
	"log"
	"time"

	"github.com/labstack/echo/v4"
)

// Logging writes one key=value line per request. Campaign routes carry the
// campaign id so a run can be traced across request and engine logs.
func Logging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			rid, _ := c.Get(ContextKeyRequestID).(string)
			line := fmt.Sprintf("request_id=%s method=%s path=%s status=%d latency=%s", rid, c.Request().Method, c.Request().URL.Path, c.Response().Status, latency)
			if campaignID := c.Param("id"); campaignID != "" {
				line += " campaign=" + campaignID
			}
			log.Print(line)

			return err
		}
	}
}
