package enums

import (
	"fmt"
	"strings"
)

// OrderStatus tracks where a persisted order sits in its delivery lifecycle.
type OrderStatus string

const (
	OrderStatusIncomplete OrderStatus = "Incomplete"
	OrderStatusReady      OrderStatus = "Ready"
	OrderStatusDelivered  OrderStatus = "Delivered"
	// OrderStatusDeleted is reported after a delivered order is removed. It is never stored.
	OrderStatusDeleted OrderStatus = "Deleted"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusIncomplete,
	OrderStatusReady,
	OrderStatusDelivered,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a storable OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into a storable OrderStatus, ignoring case.
func ParseOrderStatus(value string) (OrderStatus, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validOrderStatuses {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
