package middleware

import (
	"net/http"

	"github.com/Yuriltlef/ApexFlow-sub001/api/responses"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/permissions"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/logger"
)

// RequirePermission rejects the request unless the verified token grants
// every listed permission. It must run after Auth.
func RequirePermission(logg *logger.Logger, required ...enums.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := permissions.Check(PermissionsFromContext(r.Context()), required...); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
