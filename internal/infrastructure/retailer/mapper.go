package retailer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/glamfinder/backend/internal/domain"
	"github.com/shopspring/decimal"
)

var amountRegex = regexp.MustCompile(`\d[\d.,\s]*`)

// currencySymbols maps price-text symbols to ISO 4217 codes
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"US$", "USD"},
	{"A$", "AUD"},
	{"C$", "CAD"},
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
	{"₹", "INR"},
}

var isoCodes = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true, "CAD": true,
	"AUD": true, "CHF": true, "CNY": true, "KRW": true, "INR": true,
}

// ParsePrice extracts an amount and, when a symbol or code is present, its currency
// from retailer price text such as "$24.99", "24,99 €" or "USD 1,299.00".
func ParsePrice(text string) (decimal.Decimal, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, "", fmt.Errorf("empty price")
	}

	currency := detectCurrency(text)

	raw := amountRegex.FindString(text)
	if raw == "" {
		return decimal.Zero, "", fmt.Errorf("no amount in price %q", text)
	}

	amount, err := decimal.NewFromString(normalizeAmount(raw))
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("parse price %q: %w", text, err)
	}
	if strings.Contains(text, "-"+raw) || strings.HasPrefix(text, "-") {
		amount = amount.Neg()
	}
	return amount, currency, nil
}

func detectCurrency(text string) string {
	for _, cs := range currencySymbols {
		if strings.Contains(text, cs.symbol) {
			return cs.code
		}
	}
	for _, f := range strings.Fields(strings.ToUpper(text)) {
		if isoCodes[f] {
			return f
		}
	}
	return ""
}

// normalizeAmount turns "1.234,50", "1,234.50" and "24,99" into "1234.50" style strings
func normalizeAmount(raw string) string {
	raw = strings.TrimRight(strings.ReplaceAll(raw, " ", ""), ".,")

	lastDot := strings.LastIndex(raw, ".")
	lastComma := strings.LastIndex(raw, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			raw = strings.ReplaceAll(raw, ".", "")
			raw = strings.Replace(raw, ",", ".", 1)
		} else {
			raw = strings.ReplaceAll(raw, ",", "")
		}
	case lastComma >= 0:
		// A single comma followed by exactly two digits is a decimal separator
		if strings.Count(raw, ",") == 1 && len(raw)-lastComma-1 == 2 {
			raw = strings.Replace(raw, ",", ".", 1)
		} else {
			raw = strings.ReplaceAll(raw, ",", "")
		}
	}
	return raw
}

// ListingToQuote converts a raw listing into a validated PriceQuote
func ListingToQuote(retailerName string, listing domain.RetailerListing, defaultCurrency string) (domain.PriceQuote, error) {
	price, currency, err := ParsePrice(listing.Price)
	if err != nil {
		return domain.PriceQuote{}, err
	}

	if listing.Currency != "" {
		currency = strings.ToUpper(listing.Currency)
	}
	if currency == "" {
		currency = defaultCurrency
	}

	quote := domain.PriceQuote{
		Retailer:   retailerName,
		Price:      price,
		Currency:   currency,
		ProductURL: listing.URL,
	}
	if err := quote.Validate(); err != nil {
		return domain.PriceQuote{}, err
	}
	return quote, nil
}
