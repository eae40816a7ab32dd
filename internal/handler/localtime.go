package handler

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderLocalTime carries the caller's wall clock, RFC 3339 with offset.
const HeaderLocalTime = "X-Local-Time"

// fallbackZone is assumed when the client does not report its clock.
var fallbackZone = time.FixedZone("IST", 5*3600+30*60)

// LocalNow returns the caller's current local time. Day-boundary math
// (today's slots, dashboards) uses this rather than server time so a
// client ahead of the server does not see stale "today" slots.
func LocalNow(c *gin.Context) time.Time {
	if v := c.GetHeader(HeaderLocalTime); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Now().In(fallbackZone)
}
