package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/marketplace-core/api/responses"
	"github.com/angelmondragon/marketplace-core/api/validators"
	"github.com/angelmondragon/marketplace-core/internal/users"
	pkgerrors "github.com/angelmondragon/marketplace-core/pkg/errors"
	"github.com/angelmondragon/marketplace-core/pkg/logger"
)

// RateLimiterStore counts attempts per key within a window.
type RateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// LoginRateLimit bounds credential attempts per client IP and per account.
// A zero limit disables that dimension.
type LoginRateLimit struct {
	Name     string
	Window   time.Duration
	PerIP    int
	PerEmail int
}

func (p LoginRateLimit) enabled() bool {
	return p.Window > 0 && (p.PerIP > 0 || p.PerEmail > 0)
}

func (p LoginRateLimit) name() string {
	if n := strings.ToLower(strings.TrimSpace(p.Name)); n != "" {
		return n
	}
	return "auth"
}

type attemptCounter struct {
	dimension string
	value     string
	limit     int
}

// Throttle rejects requests with 429 once either counter passes its limit.
// Emails are hashed before they reach the store. When the store itself
// fails the request is let through and the failure logged, so a counter
// outage never locks users out.
func Throttle(policy LoginRateLimit, store RateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			counters := make([]attemptCounter, 0, 2)
			if policy.PerIP > 0 {
				if ip := clientIP(r); ip != "" {
					counters = append(counters, attemptCounter{dimension: "ip", value: ip, limit: policy.PerIP})
				}
			}
			if policy.PerEmail > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, validators.MaxBodyBytes))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				if email := users.NormalizeEmail(extractEmail(body)); email != "" {
					counters = append(counters, attemptCounter{dimension: "email", value: hashValue(email), limit: policy.PerEmail})
				}
			}

			for _, c := range counters {
				key := store.RateLimitKey(fmt.Sprintf("%s:%s:%s", c.dimension, policy.name(), c.value))
				count, err := store.IncrWithTTL(ctx, key, policy.Window)
				if err != nil {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"policy":    policy.name(),
							"dimension": c.dimension,
							"error":     err.Error(),
						}), "rate_limit.store_unavailable")
					}
					continue
				}
				if count > int64(c.limit) {
					rejectThrottled(ctx, logg, w, policy, c, count)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rejectThrottled(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy LoginRateLimit, c attemptCounter, count int64) {
	if logg != nil {
		fields := map[string]any{
			"policy":         policy.name(),
			"dimension":      c.dimension,
			"attempts":       count,
			"limit":          c.limit,
			"window_seconds": int(policy.Window.Seconds()),
		}
		// hashed emails are safe to log; raw IPs are kept for abuse triage
		if c.dimension == "email" {
			fields["email_hash"] = c.value
		} else {
			fields["ip"] = c.value
		}
		logg.Warn(logg.WithFields(ctx, fields), "rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(policy.Window.Seconds())))
	responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts, try again later"))
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		first, _, _ := strings.Cut(header, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
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

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
