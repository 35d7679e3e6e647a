package enums

// LoyaltyTier buckets customers by lifetime points.
type LoyaltyTier string

const (
	LoyaltyTierBronze   LoyaltyTier = "bronze"
	LoyaltyTierSilver   LoyaltyTier = "silver"
	LoyaltyTierGold     LoyaltyTier = "gold"
	LoyaltyTierPlatinum LoyaltyTier = "platinum"
)

// LoyaltyTxType marks whether points were earned or spent.
type LoyaltyTxType string

const (
	LoyaltyTxEarn   LoyaltyTxType = "earn"
	LoyaltyTxRedeem LoyaltyTxType = "redeem"
)
