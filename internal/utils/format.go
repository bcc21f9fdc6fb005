package utils

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const (
	quantityPlaces = 5
	percentPlaces  = 4
	moneyPlaces    = 4
)

// FormatQuantity renders a share count as #,##0.00000
func FormatQuantity(quantity float64) string {
	formatter := money.NewFormatter(quantityPlaces, ".", ",", "", "1")
	return formatter.Format(toMinorUnits(quantity, quantityPlaces))
}

// FormatPercent renders a fraction of 1.0 as 0.0000%
func FormatPercent(fraction float64) string {
	return decimal.NewFromFloat(fraction).Shift(2).StringFixed(percentPlaces) + "%"
}

// FormatMoney renders amount as $#,##0.0000 using the currency's symbol.
// Unknown currency codes fall back to "$".
func FormatMoney(amount float64, currency string) string {
	grapheme, template := "$", "$1"
	if cur := money.GetCurrency(currency); cur != nil && cur.Grapheme != "" {
		grapheme, template = cur.Grapheme, cur.Template
	}
	formatter := money.NewFormatter(moneyPlaces, ".", ",", grapheme, template)
	return formatter.Format(toMinorUnits(amount, moneyPlaces))
}

func toMinorUnits(value float64, places int32) int64 {
	return decimal.NewFromFloat(value).Shift(places).Round(0).IntPart()
}
