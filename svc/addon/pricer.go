package addon

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/agencykit"
	"github.com/dmitrymomot/agencykit/svc/catalog"
	"github.com/dmitrymomot/agencykit/svc/tenant"
)

var (
	ErrUnknownAddon     = errors.New("addon.unknown_key")
	ErrNegativeQuantity = errors.New("addon.negative_quantity")
	ErrQuantityTooLarge = errors.New("addon.quantity_too_large")
)

// LineItem is one row of a price breakdown.
type LineItem struct {
	Addon        string `json:"addon"`
	Quantity     int64  `json:"quantity"`
	PricePerUnit int64  `json:"price_per_unit"`
	Total        int64  `json:"total"`
}

// Eligibility says whether a plan may buy add-ons.
type Eligibility struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// Pricer prices add-on selections against a catalog. It has no side effects.
type Pricer struct {
	catalog *catalog.Catalog
}

func NewPricer(cat *catalog.Catalog) *Pricer {
	if cat == nil {
		panic("addon: catalog is required")
	}
	return &Pricer{catalog: cat}
}

// UnitPrice returns the monthly price of one sale unit, or 0 for unknown keys.
func (p *Pricer) UnitPrice(key string) int64 {
	a, _ := p.catalog.Addon(key)
	return a.UnitPrice
}

// SaleUnit returns how many raw units one purchased quantity represents.
func (p *Pricer) SaleUnit(key string) int64 {
	a, _ := p.catalog.Addon(key)
	return a.SaleUnit
}

// TotalPrice sums unit price times quantity over known keys. Quantities
// are expected to have passed Validate or ValidateQuantities.
func (p *Pricer) TotalPrice(s Selection) int64 {
	var total int64
	for _, it := range s {
		total += p.UnitPrice(it.Key) * it.Quantity
	}
	return total
}

// Breakdown returns one line per known key, in selection order, including
// zero quantities.
func (p *Pricer) Breakdown(s Selection) []LineItem {
	out := make([]LineItem, 0, len(s))
	for _, it := range s {
		a, ok := p.catalog.Addon(it.Key)
		if !ok {
			continue
		}
		out = append(out, LineItem{
			Addon:        it.Key,
			Quantity:     it.Quantity,
			PricePerUnit: a.UnitPrice,
			Total:        a.UnitPrice * it.Quantity,
		})
	}
	return out
}

// Eligibility reports whether the plan may purchase add-ons.
func (p *Pricer) Eligibility(plan tenant.Plan) Eligibility {
	if p.catalog.AddonEligible(plan) {
		return Eligibility{Eligible: true}
	}
	return Eligibility{
		Reason: fmt.Sprintf("add-ons are available on the %s plans; current plan is %q",
			joinPlans(p.catalog.EligiblePlans()), plan),
	}
}

// Validate rejects unknown keys, repeated keys and quantities outside the
// add-on's range.
func (p *Pricer) Validate(s Selection) error {
	var errs []error
	seen := make(map[string]bool, len(s))
	for _, it := range s {
		if seen[it.Key] {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateKey, it.Key))
		}
		seen[it.Key] = true
		if _, ok := p.catalog.Addon(it.Key); !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownAddon, it.Key))
		}
	}
	errs = append(errs, p.quantityErrors(s)...)
	return invalid(errs)
}

// ValidateQuantities checks the quantities of known keys only. Quotes use it
// so that unknown keys stay ignored.
func (p *Pricer) ValidateQuantities(s Selection) error {
	return invalid(p.quantityErrors(s))
}

func (p *Pricer) quantityErrors(s Selection) []error {
	var errs []error
	for _, it := range s {
		switch a, ok := p.catalog.Addon(it.Key); {
		case it.Quantity < 0:
			errs = append(errs, fmt.Errorf("%w: %q", ErrNegativeQuantity, it.Key))
		case ok && it.Quantity > a.MaxQuantity:
			errs = append(errs, fmt.Errorf("%w: %q allows at most %d", ErrQuantityTooLarge, it.Key, a.MaxQuantity))
		}
	}
	return errs
}

func invalid(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{agencykit.ErrInvalidArgument}, errs...)...)
}

func joinPlans(plans []tenant.Plan) string {
	var out string
	for i, p := range plans {
		switch {
		case i == 0:
		case i == len(plans)-1:
			out += " and "
		default:
			out += ", "
		}
		out += string(p)
	}
	return out
}
