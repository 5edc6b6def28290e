package model

// PriceType represents one of the supported hospital-level charge categories.
type PriceType string

const (
	PriceGross PriceType = "gross" // undiscounted chargemaster price
	PriceCash  PriceType = "cash"  // self-pay discounted price
	PriceMin   PriceType = "min"   // de-identified minimum negotiated rate
	PriceMax   PriceType = "max"   // de-identified maximum negotiated rate
)

// AllPriceTypes lists the supported price types in canonical output order.
var AllPriceTypes = []PriceType{PriceGross, PriceCash, PriceMin, PriceMax}

// ParsePriceType returns the PriceType for the given token, or ok=false.
func ParsePriceType(s string) (PriceType, bool) {
	for _, pt := range AllPriceTypes {
		if string(pt) == s {
			return pt, true
		}
	}
	return "", false
}
