package types

// SuccessEnvelope wraps every 2xx body: {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error. Code is one of the pkg/errors codes.
// Details is only filled for client-correctable failures and carries the
// entity the caller got wrong, for example
//
//	{"order_id": "ORD20260501120000ab12cd34", "status": "shipped"}
//	{"product_id": "…", "requested": 3, "available": 1}
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every non-2xx body: {"error": {...}}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// OrderDetails reads the order id from an error's details, if present.
func (e APIError) OrderDetails() (orderID string, ok bool) {
	return e.detailString("order_id")
}

// ProductDetails reads the product id from an error's details, if present.
func (e APIError) ProductDetails() (productID string, ok bool) {
	return e.detailString("product_id")
}

func (e APIError) detailString(key string) (string, bool) {
	m, ok := e.Details.(map[string]any)
	if !ok {
		return "", false
	}
	v, ok := m[key].(string)
	return v, ok && v != ""
}
