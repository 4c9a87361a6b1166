package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/servmarket/servmarket-backend/api/responses"
	pkgerrors "github.com/servmarket/servmarket-backend/pkg/errors"
	"github.com/servmarket/servmarket-backend/pkg/logger"
)

// maxPeekBytes bounds how much of the body is buffered to find the email.
const maxPeekBytes = 64 << 10

// RateLimiter counts hits in a fixed window keyed by scope.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitResetter is implemented by limiters that can drop a counter early.
type RateLimitResetter interface {
	Reset(ctx context.Context, scope string) error
}

// RateLimitPolicy throttles one public surface per client IP and, when the
// payload carries one, per email address.
type RateLimitPolicy struct {
	Name       string
	Window     time.Duration
	IPLimit    int
	EmailLimit int
	// ResetOnSuccess clears the email counter once the handler answers 2xx,
	// so failed attempts before a good one do not keep counting against it.
	ResetOnSuccess bool
}

func (p RateLimitPolicy) enabled() bool {
	return p.Window > 0 && (p.IPLimit > 0 || p.EmailLimit > 0)
}

func (p RateLimitPolicy) name() string {
	if name := strings.ToLower(strings.TrimSpace(p.Name)); name != "" {
		return name
	}
	return "auth"
}

// RateLimit enforces policy against limiter. A nil limiter disables throttling,
// which is how the API runs without redis.
func RateLimit(policy RateLimitPolicy, limiter RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if policy.IPLimit > 0 {
				if ip := clientIP(r); ip != "" {
					scope := "ip:" + policy.name() + ":" + ip
					if !check(ctx, w, logg, limiter, policy, scope, policy.IPLimit, map[string]any{"ip": ip}) {
						return
					}
				}
			}

			var emailScope string
			if policy.EmailLimit > 0 && r.Body != nil {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))

				if email := normalizeEmail(extractEmail(body)); email != "" {
					hash := hashValue(email)
					scope := "email:" + policy.name() + ":" + hash
					if !check(ctx, w, logg, limiter, policy, scope, policy.EmailLimit, map[string]any{"email_hash": hash}) {
						return
					}
					emailScope = scope
				}
			}

			resetter, canReset := limiter.(RateLimitResetter)
			if !policy.ResetOnSuccess || !canReset || emailScope == "" {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 || (rec.status >= 200 && rec.status < 300) {
				if err := resetter.Reset(ctx, emailScope); err != nil && logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "auth.rate_limit.reset_failed")
				}
			}
		})
	}
}

// check consumes one hit and writes the rejection when the window is spent.
func check(ctx context.Context, w http.ResponseWriter, logg *logger.Logger, limiter RateLimiter, policy RateLimitPolicy, scope string, limit int, fields map[string]any) bool {
	allowed, count, err := limiter.FixedWindowAllow(ctx, scope, int64(limit), policy.Window)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return false
	}
	if allowed {
		return true
	}

	if logg != nil {
		fields["policy"] = policy.name()
		fields["attempts"] = count
		fields["limit"] = limit
		fields["window_seconds"] = int(policy.Window.Seconds())
		logg.Warn(logg.WithFields(ctx, fields), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(policy.Window.Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests, please try again later"))
	return false
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for part := range strings.SplitSeq(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Email
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
