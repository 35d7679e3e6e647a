package enums

// PaymentMethod identifies how a tender was settled.
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodQR   PaymentMethod = "qr"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodQR:
		return true
	}
	return false
}

// PaymentMode distinguishes single-tender from split-tender reconciliation.
type PaymentMode string

const (
	PaymentModeSingle PaymentMode = "single"
	PaymentModeSplit  PaymentMode = "split"
)

func (m PaymentMode) Valid() bool {
	return m == PaymentModeSingle || m == PaymentModeSplit
}
