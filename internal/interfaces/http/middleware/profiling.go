package middleware

import (
	"context"

	"github.com/Marusmurong/mall-sub000/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Profiling tags the rest of the chain with route, method and site labels
// so CPU and allocation profiles can be sliced per endpoint and storefront.
// It belongs after SiteContext.
func Profiling() gin.HandlerFunc {
	return func(c *gin.Context) {
		labels := map[string]string{
			telemetry.ProfilingLabelMethod: c.Request.Method,
			telemetry.ProfilingLabelRoute:  c.FullPath(),
		}
		if st := GetSite(c); st != nil {
			labels[telemetry.ProfilingLabelSiteCode] = st.Code
		}

		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
