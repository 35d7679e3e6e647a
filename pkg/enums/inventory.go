package enums

// InventoryLogType labels a stock ledger movement.
type InventoryLogType string

const (
	InventoryLogSale       InventoryLogType = "sale"
	InventoryLogAdjustment InventoryLogType = "adjustment"
	InventoryLogReceiving  InventoryLogType = "receiving"
	InventoryLogReturn     InventoryLogType = "return"
)

func (t InventoryLogType) Valid() bool {
	switch t {
	case InventoryLogSale, InventoryLogAdjustment, InventoryLogReceiving, InventoryLogReturn:
		return true
	}
	return false
}
