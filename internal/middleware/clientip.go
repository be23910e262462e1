package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// TrustProxies configures how gin resolves the visitor address. Forwarding
// headers are honoured only when the socket peer is one of proxies; with
// every hop trusted the first X-Forwarded-For entry wins. platform names a
// header set by the hosting edge ("cloudflare", "google" or a raw header
// name) and is trusted unconditionally, so leave it empty unless the edge
// overwrites it on every request.
func TrustProxies(r *gin.Engine, proxies []string, platform string) error {
	r.RemoteIPHeaders = []string{"X-Forwarded-For", "X-Real-IP"}

	switch strings.ToLower(strings.TrimSpace(platform)) {
	case "":
		r.TrustedPlatform = ""
	case "cloudflare":
		r.TrustedPlatform = gin.PlatformCloudflare
	case "google":
		r.TrustedPlatform = gin.PlatformGoogleAppEngine
	default:
		r.TrustedPlatform = strings.TrimSpace(platform)
	}

	if len(proxies) == 0 {
		return r.SetTrustedProxies(nil)
	}
	if err := r.SetTrustedProxies(proxies); err != nil {
		_ = r.SetTrustedProxies(nil)
		return err
	}
	return nil
}

// GetClientIP returns the visitor address as resolved by gin.
func GetClientIP(c *gin.Context) string {
	return c.ClientIP()
}
