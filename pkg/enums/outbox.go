package enums

// OutboxEventType enumerates domain events emitted through the outbox.
type OutboxEventType string

const (
	EventSaleCompleted  OutboxEventType = "sale.completed"
	EventStockAdjusted  OutboxEventType = "inventory.stock_adjusted"
	EventStockDepleted  OutboxEventType = "inventory.stock_depleted"
	EventLoyaltyAwarded OutboxEventType = "loyalty.points_awarded"
)

// OutboxAggregateType names the aggregate an event belongs to.
type OutboxAggregateType string

const (
	AggregateSale     OutboxAggregateType = "sale"
	AggregateProduct  OutboxAggregateType = "product"
	AggregateCustomer OutboxAggregateType = "customer"
)
