package middleware

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sikka-software/Tanad-sub009/internal/interfaces/http/dto"
)

// multipartOverhead covers the part headers and boundaries around an
// uploaded file
const multipartOverhead = 64 << 10

// BodyLimitConfig caps request bodies. JSON and other bodies are capped at
// MaxBytes; multipart uploads at MaxUploadBytes plus the multipart framing.
type BodyLimitConfig struct {
	MaxBytes       int64
	MaxUploadBytes int64
}

// BodyLimit rejects declared oversize bodies with 413 and caps the rest
func BodyLimit(cfg BodyLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := cfg.limitFor(c.Request)
		if limit <= 0 || c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}

		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				GetRequestID(c),
			))
			return
		}

		// Chunked bodies fail on read instead
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

func (cfg BodyLimitConfig) limitFor(r *http.Request) int64 {
	if cfg.MaxUploadBytes > 0 {
		if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && mediaType == "multipart/form-data" {
			return max(cfg.MaxUploadBytes+multipartOverhead, cfg.MaxBytes)
		}
	}
	return cfg.MaxBytes
}
