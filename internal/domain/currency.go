package domain

import "strings"

// cashCurrencies are tickers priced at exactly 1 unit of themselves.
// A holding with one of these tickers is a cash position.
var cashCurrencies = map[string]bool{
	"TWD": true, "USD": true, "HKD": true, "CNY": true, "JPY": true, "EUR": true,
	"GBP": true, "AUD": true, "CAD": true, "CHF": true, "NZD": true, "RUB": true,
	"INR": true, "MXN": true, "ZAR": true, "BRL": true, "ARS": true, "CLP": true,
	"COP": true, "PEN": true, "UYU": true, "PYG": true, "UFX": true, "VND": true,
	"PHP": true, "IDR": true, "THB": true, "MYR": true, "KRW": true, "SGD": true,
	"NOK": true, "SEK": true, "DKK": true, "ISK": true, "RSD": true, "RON": true,
	"BGN": true, "TRY": true, "BAM": true, "AZN": true, "MDL": true, "GEL": true,
	"AMD": true, "KZT": true, "KGS": true, "TJS": true, "TMT": true, "UZS": true,
	"BYN": true, "XDR": true, "XAG": true, "XAU": true,
}

// IsCashCurrency reports whether ticker is a self-priced cash currency code
func IsCashCurrency(ticker string) bool {
	return cashCurrencies[strings.ToUpper(ticker)]
}
