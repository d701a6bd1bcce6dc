package reject

// Reason is the machine-readable cause of a refused operation. It is returned
// inline as an error or carried inside an OperationRejected event.
type Reason string

const (
	// Rights.
	PartialClaimsNotAllowed Reason = "PARTIAL_CLAIMS_NOT_ALLOWED"
	StrengthOutOfRange      Reason = "STRENGTH_OUT_OF_RANGE"
	BelowMinimumStrength    Reason = "BELOW_MINIMUM_STRENGTH"
	InsufficientLegitimacy  Reason = "INSUFFICIENT_LEGITIMACY"
	ClaimExceedsAvailable   Reason = "CLAIM_EXCEEDS_AVAILABLE"
	TooManyLayers           Reason = "TOO_MANY_LAYERS"
	UnknownHolder           Reason = "UNKNOWN_HOLDER"

	// Securitization.
	AssetFrozen         Reason = "ASSET_FROZEN"
	AssetNotFrozen      Reason = "ASSET_NOT_FROZEN"
	InsufficientBacking Reason = "INSUFFICIENT_BACKING"
	ExceedsIssued       Reason = "EXCEEDS_ISSUED"

	// Inventory.
	CapacityExceeded Reason = "CAPACITY_EXCEEDED"
	ItemNotFound     Reason = "ITEM_NOT_FOUND"
	NotEnoughItems   Reason = "NOT_ENOUGH_ITEMS"

	// Shared.
	InvalidAmount Reason = "INVALID_AMOUNT"
	UnknownAction Reason = "UNKNOWN_ACTION"
)

func (r Reason) Error() string { return string(r) }

var known = map[Reason]struct{}{
	PartialClaimsNotAllowed: {},
	StrengthOutOfRange:      {},
	BelowMinimumStrength:    {},
	InsufficientLegitimacy:  {},
	ClaimExceedsAvailable:   {},
	TooManyLayers:           {},
	UnknownHolder:           {},
	AssetFrozen:             {},
	AssetNotFrozen:          {},
	InsufficientBacking:     {},
	ExceedsIssued:           {},
	CapacityExceeded:        {},
	ItemNotFound:            {},
	NotEnoughItems:          {},
	InvalidAmount:           {},
	UnknownAction:           {},
}

func IsKnown(r Reason) bool {
	_, ok := known[r]
	return ok
}
