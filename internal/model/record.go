package model

// CandidateRecord is one billable item as extracted from a raw source table.
// All fields are still raw strings; a nil price field means the hospital did
// not publish that price type, which is different from an empty string value.
type CandidateRecord struct {
	Code  string
	Gross *string
	Cash  *string
	Min   *string
	Max   *string
}

// Amount returns the raw amount string for the given price type, or nil if
// the field is absent on this record.
func (r *CandidateRecord) Amount(pt PriceType) *string {
	switch pt {
	case PriceGross:
		return r.Gross
	case PriceCash:
		return r.Cash
	case PriceMin:
		return r.Min
	case PriceMax:
		return r.Max
	}
	return nil
}

// SetAmount binds the raw amount string for the given price type.
func (r *CandidateRecord) SetAmount(pt PriceType, v *string) {
	switch pt {
	case PriceGross:
		r.Gross = v
	case PriceCash:
		r.Cash = v
	case PriceMin:
		r.Min = v
	case PriceMax:
		r.Max = v
	}
}
