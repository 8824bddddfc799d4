package shiprocket

// ShipmentItem is one manifest line on a shipment request.
type ShipmentItem struct {
	Name     string  `json:"name"`
	SKU      string  `json:"sku"`
	Units    int     `json:"units"`
	Price    float64 `json:"selling_price"`
	Discount float64 `json:"discount"`
	Tax      float64 `json:"tax"`
	HSN      int     `json:"hsn"`
}

// ShipmentRequest is the POST /orders/create/ad-hoc payload.
type ShipmentRequest struct {
	OrderID         string         `json:"order_id"`
	OrderDate       string         `json:"order_date"`
	PickupLocation  string         `json:"pickup_location"`
	BillingName     string         `json:"billing_customer_name"`
	BillingLastName string         `json:"billing_last_name"`
	BillingAddress  string         `json:"billing_address"`
	BillingCity     string         `json:"billing_city"`
	BillingPincode  string         `json:"billing_pincode"`
	BillingState    string         `json:"billing_state"`
	BillingCountry  string         `json:"billing_country"`
	BillingEmail    string         `json:"billing_email"`
	BillingPhone    string         `json:"billing_phone"`
	ShippingIsBilling bool         `json:"shipping_is_billing"`
	Items           []ShipmentItem `json:"order_items"`
	PaymentMethod   string         `json:"payment_method"` // "Prepaid" or "COD"
	Subtotal        float64        `json:"sub_total"`
	Length          float64        `json:"length"`
	Breadth         float64        `json:"breadth"`
	Height          float64        `json:"height"`
	Weight          float64        `json:"weight"`
}

// ShipmentResponse carries the provider's identifiers for a created shipment.
type ShipmentResponse struct {
	OrderID     int64  `json:"order_id"`
	ShipmentID  int64  `json:"shipment_id"`
	Status      string `json:"status"`
	CourierName string `json:"courier_name"`
	AWBCode     string `json:"awb_code"`
}
