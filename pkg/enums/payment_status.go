package enums

// PaymentStatus is the status reported to the payment sink alongside an order.
type PaymentStatus string

const (
	PaymentStatusProcessed PaymentStatus = "processed"
	PaymentStatusCompleted PaymentStatus = "completed"
)

func (p PaymentStatus) String() string {
	return string(p)
}
