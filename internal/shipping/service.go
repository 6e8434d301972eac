package shipping

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/riversidefab/storefront-backend/pkg/canadapost"
	"github.com/riversidefab/storefront-backend/pkg/db/models"
	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
	"github.com/riversidefab/storefront-backend/pkg/logger"
)

const (
	// OriginPostalCode is where parcels ship from.
	OriginPostalCode = "N9J1V6"

	// MaxParcelWeightKg is the carrier limit for a single parcel.
	MaxParcelWeightKg = 30.0

	// MinParcelWeightKg is the carrier minimum billable weight. Items with
	// no recorded weight assume this value.
	MinParcelWeightKg = 0.5
)

// Quote sources.
const (
	SourceLive  = "live"
	SourceTable = "table"
)

var domesticServices = map[string]bool{
	"DOM.RP":       true,
	"DOM.EP":       true,
	"DOM.XP":       true,
	"DOM.PRIORITY": true,
}

var internationalServices = map[string]bool{
	"INTL.IP":  true,
	"INTL.PW":  true,
	"INTL.XIP": true,
}

// demoRate is a local estimate used when the carrier is unreachable.
type demoRate struct {
	code           string
	name           string
	base           decimal.Decimal
	perKg          decimal.Decimal
	guaranteedDays string
	estDelivery    string
}

var demoRates = []demoRate{
	{"DOM.RP", "Regular Parcel", decimal.NewFromFloat(8.95), decimal.NewFromFloat(0.5), "3-5", "Approximately 3-5 business days"},
	{"DOM.EP", "Express", decimal.NewFromFloat(16.45), decimal.NewFromFloat(1.0), "1-2", "Next business day to 2 business days"},
	{"DOM.XP", "Xpresspost", decimal.NewFromFloat(24.95), decimal.NewFromFloat(1.5), "1", "Next business day"},
	{"DOM.PRIORITY", "Priority", decimal.NewFromFloat(35.95), decimal.NewFromFloat(2.0), "Overnight", "Next business day"},
}

// Service exposes shipping quotes for a cart.
type Service interface {
	Quote(ctx context.Context, destinationPostal string, domesticOnly bool, items []models.CartItem) (*QuoteDTO, error)
}

// QuoteDTO is the shipping quote payload returned to clients.
type QuoteDTO struct {
	Origin      string      `json:"origin"`
	Destination string      `json:"destination"`
	WeightKg    float64     `json:"weight_kg"`
	Source      string      `json:"source"`
	Options     []OptionDTO `json:"options"`
}

// OptionDTO is one shipping service choice.
type OptionDTO struct {
	ServiceCode     string `json:"service_code"`
	ServiceName     string `json:"service_name"`
	PriceCents      int    `json:"price_cents"`
	GuaranteedDays  string `json:"guaranteed_days,omitempty"`
	EstDeliveryDate string `json:"est_delivery_date,omitempty"`
}

type rateClient interface {
	GetRates(ctx context.Context, req canadapost.RateRequest) ([]canadapost.RateOption, error)
}

type fallbackCounter interface {
	IncShippingFallback()
}

type service struct {
	rates   rateClient
	logger  *logger.Logger
	metrics fallbackCounter
}

// NewService constructs a shipping service. A nil rate client means every
// quote is served from the local table.
func NewService(rates rateClient, logg *logger.Logger, metrics fallbackCounter) (Service, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{rates: rates, logger: logg, metrics: metrics}, nil
}

// Quote validates the destination and returns shipping options sorted by
// price. International services are included only when domesticOnly is
// false. Carrier failures degrade to the local rate table.
func (s *service) Quote(ctx context.Context, destinationPostal string, domesticOnly bool, items []models.CartItem) (*QuoteDTO, error) {
	normalized := NormalizePostalCode(destinationPostal)
	if !IsCanadianPostalCode(normalized) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid Canadian postal code format (e.g., N9J 1V6)")
	}

	weight := TotalWeightKg(items)
	if weight <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight must be greater than 0 kg")
	}
	if weight > MaxParcelWeightKg {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight exceeds 30 kg maximum for parcels")
	}

	if s.rates != nil {
		options, err := s.rates.GetRates(ctx, canadapost.RateRequest{
			OriginPostalCode:      OriginPostalCode,
			DestinationPostalCode: normalized,
			WeightGrams:           int(weight * 1000),
		})
		if err == nil {
			return buildQuote(normalized, weight, SourceLive, filterAndSort(options, domesticOnly)), nil
		}
		s.logger.Warn(s.logger.WithField(ctx, "destination", normalized), "carrier quote failed, using local rate table")
	}

	if s.metrics != nil {
		s.metrics.IncShippingFallback()
	}
	return buildQuote(normalized, weight, SourceTable, tableOptions(weight)), nil
}

// TotalWeightKg sums item weights with a per-item default and applies the
// carrier minimum.
func TotalWeightKg(items []models.CartItem) float64 {
	total := 0.0
	for _, item := range items {
		weight := MinParcelWeightKg
		if item.WeightKg != nil {
			weight = *item.WeightKg
		}
		total += weight * float64(item.Quantity)
	}
	if total < MinParcelWeightKg {
		return MinParcelWeightKg
	}
	return total
}

// NormalizePostalCode strips spaces and uppercases the code.
func NormalizePostalCode(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), " ", ""))
}

// IsCanadianPostalCode reports whether the normalized code matches A1A1A1.
func IsCanadianPostalCode(normalized string) bool {
	if len(normalized) != 6 {
		return false
	}
	for i, r := range normalized {
		if i%2 == 0 {
			if r < 'A' || r > 'Z' {
				return false
			}
		} else {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

func filterAndSort(options []canadapost.RateOption, domesticOnly bool) []OptionDTO {
	out := make([]OptionDTO, 0, len(options))
	for _, option := range options {
		if !domesticServices[option.ServiceCode] && (domesticOnly || !internationalServices[option.ServiceCode]) {
			continue
		}
		out = append(out, OptionDTO{
			ServiceCode:     option.ServiceCode,
			ServiceName:     option.ServiceName,
			PriceCents:      toCents(option.Price),
			GuaranteedDays:  option.GuaranteedDays,
			EstDeliveryDate: option.EstDeliveryDate,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriceCents < out[j].PriceCents })
	return out
}

func tableOptions(weightKg float64) []OptionDTO {
	weight := decimal.NewFromFloat(weightKg)
	out := make([]OptionDTO, 0, len(demoRates))
	for _, rate := range demoRates {
		price := rate.base.Add(rate.perKg.Mul(weight)).Round(2)
		out = append(out, OptionDTO{
			ServiceCode:     rate.code,
			ServiceName:     rate.name,
			PriceCents:      toCents(price),
			GuaranteedDays:  rate.guaranteedDays,
			EstDeliveryDate: rate.estDelivery,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriceCents < out[j].PriceCents })
	return out
}

func toCents(price decimal.Decimal) int {
	return int(price.Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

func buildQuote(destination string, weightKg float64, source string, options []OptionDTO) *QuoteDTO {
	return &QuoteDTO{
		Origin:      OriginPostalCode,
		Destination: destination,
		WeightKg:    weightKg,
		Source:      source,
		Options:     options,
	}
}
