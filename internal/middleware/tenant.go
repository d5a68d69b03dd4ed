package middleware

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/bryanwahyu/medassist/internal/application/tenant"
	"github.com/bryanwahyu/medassist/internal/domain/hospital"
)

type tenantKey struct{}

func WithTenant(ctx context.Context, res tenant.Resolution) context.Context {
	return context.WithValue(ctx, tenantKey{}, res)
}

// TenantFrom returns the zero Resolution (global context) when none was set.
func TenantFrom(ctx context.Context) tenant.Resolution {
	res, _ := ctx.Value(tenantKey{}).(tenant.Resolution)
	return res
}

// Tenant resolves the hospital of every request from the hint header or host.
// Unknown subdomains pass through unresolved; inactive hospitals are blocked
// except on public paths.
func Tenant(resolver *tenant.Resolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := resolver.Resolve(r.Context(), r.Host, r.Header.Get(tenant.HintHeader), r.URL.Path)
			switch {
			case errors.Is(err, hospital.ErrInactive):
				WriteError(w, http.StatusForbidden, "HOSPITAL_INACTIVE", "hospital is not active")
				return
			case err != nil:
				logger.Error("tenant resolution failed",
					zap.String("host", r.Host),
					zap.String("requested", res.Requested),
					zap.Error(err),
				)
				WriteError(w, http.StatusInternalServerError, "INTERNAL", "tenant resolution failed")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), res)))
		})
	}
}
