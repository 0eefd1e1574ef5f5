package middleware

import (
	"net/http"
	"slices"
	"strings"

	"go-medical-appointment/internal/domain/entity"
	"go-medical-appointment/pkg/response"
)

// RequireRole lets the request through only for the given role IDs.
// The role comes from the access token claims set by Authenticate.
func RequireRole(allowedRoleIDs ...int) func(http.Handler) http.Handler {
	names := make([]string, len(allowedRoleIDs))
	for i, id := range allowedRoleIDs {
		names[i] = entity.RoleName(id)
	}
	denied := "This resource requires role: " + strings.Join(names, " or ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			roleID, ok := GetRoleIDFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Role information not found")
				return
			}

			if !slices.Contains(allowedRoleIDs, roleID) {
				response.Forbidden(w, denied)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(entity.RoleIDAdmin)(next)
}

// RequireDoctor guards the doctor self-service routes.
func RequireDoctor(next http.Handler) http.Handler {
	return RequireRole(entity.RoleIDDoctor)(next)
}

// RequirePatient guards the patient self-service routes.
func RequirePatient(next http.Handler) http.Handler {
	return RequireRole(entity.RoleIDPatient)(next)
}

// RequireAdminOrDoctor guards clinical staff actions: confirming and
// completing appointments, ordering analyses and recording results.
func RequireAdminOrDoctor(next http.Handler) http.Handler {
	return RequireRole(entity.RoleIDAdmin, entity.RoleIDDoctor)(next)
}
