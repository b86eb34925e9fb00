package enums

import (
	"fmt"
	"strings"
)

// Permission is a capability granted to an operator account.
type Permission string

const (
	PermissionAdmin            Permission = "admin"
	PermissionOrderView        Permission = "order_view"
	PermissionOrderManage      Permission = "order_manage"
	PermissionLogisticsView    Permission = "logistics_view"
	PermissionLogisticsManage  Permission = "logistics_manage"
	PermissionInventoryView    Permission = "inventory_view"
	PermissionInventoryManage  Permission = "inventory_manage"
	PermissionIncomeView       Permission = "income_view"
	PermissionAfterSalesManage Permission = "after_sales_manage"
	PermissionReviewManage     Permission = "review_manage"
)

var validPermissions = []Permission{
	PermissionAdmin,
	PermissionOrderView,
	PermissionOrderManage,
	PermissionLogisticsView,
	PermissionLogisticsManage,
	PermissionInventoryView,
	PermissionInventoryManage,
	PermissionIncomeView,
	PermissionAfterSalesManage,
	PermissionReviewManage,
}

// String implements fmt.Stringer.
func (p Permission) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Permission.
func (p Permission) IsValid() bool {
	for _, candidate := range validPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePermission converts raw input into a Permission.
func ParsePermission(value string) (Permission, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPermissions {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permission %q", value)
}
