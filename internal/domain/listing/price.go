package listing

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is used when a listing carries no currency.
const DefaultCurrency = "USD"

// Currencies lists the currencies accepted for listing prices.
var Currencies = []string{"USD", "EUR", "GBP", "CAD", "AUD", "BRL", "JPY"}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"CAD": "C$",
	"AUD": "A$",
	"BRL": "R$",
	"JPY": "¥",
}

var pricePrinter = message.NewPrinter(language.English)

// FormatPrice renders an amount with its currency symbol and digit grouping.
// JPY has no minor unit. Unknown currencies are prefixed with their code.
func FormatPrice(amount float64, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = currency + " "
	}
	if currency == "JPY" {
		return symbol + pricePrinter.Sprintf("%.0f", amount)
	}
	return symbol + pricePrinter.Sprintf("%.2f", amount)
}
