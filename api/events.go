package api

import (
	"ledger/events"
	"ledger/middleware"

	"github.com/gin-gonic/gin"
)

// publish emits a domain event. Delivery failures are logged, never returned to the client.
func publish(c *gin.Context, p events.Publisher, eventType string, payload interface{}) {
	if err := p.Publish(c.Request.Context(), events.New(eventType, payload)); err != nil {
		middleware.Logger(c).WithError(err).WithField("event", eventType).Warn("event not published")
	}
}
