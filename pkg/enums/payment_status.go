package enums

import "slices"

// PaymentStatus is the provider's verdict on a charge.
type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

var paymentStatuses = []PaymentStatus{PaymentStatusSucceeded, PaymentStatusFailed}

func (p PaymentStatus) String() string { return string(p) }

func (p PaymentStatus) IsValid() bool { return slices.Contains(paymentStatuses, p) }

// ParsePaymentStatus is exact-match; provider payloads are already canonical.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	return parse("payment status", value, paymentStatuses, identity)
}
