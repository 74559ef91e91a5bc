package checkout

import (
	"strings"

	"github.com/angelmondragon/merch-checkout/pkg/enums"
)

type brandRule struct {
	brand    enums.CardBrand
	prefixes []string
}

// Order matters: the first rule with a matching prefix wins.
var brandRules = []brandRule{
	{enums.CardBrandVisa, []string{"4"}},
	{enums.CardBrandMastercard, []string{"51", "52", "53", "54", "55", "22", "23", "24", "25", "26", "27"}},
	{enums.CardBrandAmex, []string{"34", "37"}},
	{enums.CardBrandDiscover, []string{"6011", "65"}},
}

// DetectBrand classifies a card by its leading digits. Separators are ignored.
func DetectBrand(number string) enums.CardBrand {
	digits := Digits(number)
	for _, rule := range brandRules {
		for _, prefix := range rule.prefixes {
			if strings.HasPrefix(digits, prefix) {
				return rule.brand
			}
		}
	}
	return enums.CardBrandUnknown
}
