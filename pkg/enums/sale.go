package enums

// SaleStatus tracks the lifecycle of a finalized transaction.
type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusCancelled SaleStatus = "cancelled"
)

func (s SaleStatus) Valid() bool {
	return s == SaleStatusCompleted || s == SaleStatusCancelled
}
