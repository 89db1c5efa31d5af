package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/stylehub/commerce-backend/internal/interface/http/handler"
	"github.com/stylehub/commerce-backend/pkg/logging"
)

// RequestLogger writes one line per request. Server errors log at error
// level, client errors at warn.
func RequestLogger(log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}
		f := logging.Fields{
			Step:       c.Method() + " " + c.Route().Path,
			Status:     strconv.Itoa(status),
			DurationMS: time.Since(start).Milliseconds(),
		}
		if msg, ok := c.Locals(handler.ErrorLocal).(string); ok {
			f.Error = msg
		} else if err != nil {
			f.Error = err.Error()
		}
		if uid, uerr := handler.UserIDFromCtx(c); uerr == nil {
			f.UserID = uid
		}
		msg := "http " + c.Method() + " " + c.OriginalURL()
		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error(msg, f)
		case status >= fiber.StatusBadRequest:
			log.Warn(msg, f)
		default:
			log.Info(msg, f)
		}
		return err
	}
}
