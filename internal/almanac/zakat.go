package almanac

import "fmt"

// Zakat constants: the levy rate and the nisab thresholds in metal grams.
const (
	ZakatRate       = 0.025
	NisabGoldGrams  = 85.0
	NisabSilverGram = 595.0
)

// NisabBasis selects which metal defines the wealth threshold.
type NisabBasis string

const (
	BasisGold   NisabBasis = "gold"
	BasisSilver NisabBasis = "silver"
)

// ZakatInput is the wealth breakdown and metal prices for a calculation.
// Monetary fields share one arbitrary currency; prices are per gram.
type ZakatInput struct {
	Cash             float64    `json:"cash"`
	GoldGrams        float64    `json:"gold_grams"`
	SilverGrams      float64    `json:"silver_grams"`
	Investments      float64    `json:"investments"`
	Liabilities      float64    `json:"liabilities"`
	GoldPricePerGram float64    `json:"gold_price_per_gram"`
	SilverPriceGram  float64    `json:"silver_price_per_gram"`
	Basis            NisabBasis `json:"basis"`
}

// ZakatResult is the outcome of a zakat calculation.
type ZakatResult struct {
	NetWealth float64 `json:"net_wealth"`
	Nisab     float64 `json:"nisab"`
	Due       bool    `json:"due"`
	Amount    float64 `json:"amount"`
}

// Zakat computes the levy: 2.5% of net zakatable wealth when it meets the
// nisab threshold, zero otherwise.
func Zakat(in ZakatInput) (ZakatResult, error) {
	if in.GoldPricePerGram < 0 || in.SilverPriceGram < 0 {
		return ZakatResult{}, fmt.Errorf("metal prices cannot be negative")
	}

	basis := in.Basis
	if basis == "" {
		basis = BasisGold
	}

	var nisab float64
	switch basis {
	case BasisGold:
		nisab = NisabGoldGrams * in.GoldPricePerGram
	case BasisSilver:
		nisab = NisabSilverGram * in.SilverPriceGram
	default:
		return ZakatResult{}, fmt.Errorf("unknown nisab basis %q", in.Basis)
	}
	if nisab <= 0 {
		return ZakatResult{}, fmt.Errorf("nisab requires a positive %s price", basis)
	}

	net := in.Cash +
		in.GoldGrams*in.GoldPricePerGram +
		in.SilverGrams*in.SilverPriceGram +
		in.Investments -
		in.Liabilities

	result := ZakatResult{NetWealth: net, Nisab: nisab}
	if net >= nisab {
		result.Due = true
		result.Amount = net * ZakatRate
	}
	return result, nil
}
