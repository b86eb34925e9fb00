// Package permissions decides whether a caller's granted capabilities cover
// an operation. The HTTP layer calls Check explicitly before invoking a
// service.
package permissions

import (
	"strings"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	pkgerrors "github.com/Yuriltlef/ApexFlow-sub001/pkg/errors"
)

// Check returns nil when granted covers every required permission. Admin
// covers everything. An empty required list always passes.
func Check(granted []enums.Permission, required ...enums.Permission) error {
	if len(required) == 0 {
		return nil
	}
	set := make(map[enums.Permission]struct{}, len(granted))
	for _, p := range granted {
		set[p] = struct{}{}
	}
	if _, ok := set[enums.PermissionAdmin]; ok {
		return nil
	}

	var missing []string
	for _, p := range required {
		if _, ok := set[p]; !ok {
			missing = append(missing, p.String())
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "missing permission: "+strings.Join(missing, ", ")).
		WithDetails(map[string]any{"missing": missing})
}

// Allowed is the boolean form of Check.
func Allowed(granted []enums.Permission, required ...enums.Permission) bool {
	return Check(granted, required...) == nil
}

// Parse converts raw permission names, dropping unknown values.
func Parse(raw []string) []enums.Permission {
	out := make([]enums.Permission, 0, len(raw))
	for _, r := range raw {
		if p, err := enums.ParsePermission(r); err == nil {
			out = append(out, p)
		}
	}
	return out
}
