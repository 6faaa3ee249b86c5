// Package format renders aggregated quotes and balance lookups as the
// plain-text chat messages the bot sends.
package format

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"coinpricebot/internal/domain"

	"github.com/shopspring/decimal"
)

// Interval ordering for the price-change table. Intervals outside this
// list render after it, alphabetically.
var intervalOrder = []string{"1h", "24h", "7d", "30d", "60d", "90d"}

var (
	oneBillion  = decimal.New(1, 9)
	oneTrillion = decimal.New(1, 12)
)

// RenderQuote renders the full pricing message for a quote. Big-number
// currencies are quoted per 1B and 1T tokens because a single token is
// worth a fraction of a cent. EUR figures are omitted when fiat
// conversion degraded.
func RenderQuote(q *domain.Quote, mode domain.DisplayMode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Price (%s):", q.Source)

	if mode == domain.DisplayBigNumber {
		fmt.Fprintf(&b, "\n1B %s = %s", q.Symbol, pricePair(q.PriceUSD.Mul(oneBillion), scale(q.PriceEUR, oneBillion), 3))
		fmt.Fprintf(&b, "\n1T %s = %s", q.Symbol, pricePair(q.PriceUSD.Mul(oneTrillion), scale(q.PriceEUR, oneTrillion), 0))
	} else {
		fmt.Fprintf(&b, "\n1 %s = %s", q.Symbol, pricePair(q.PriceUSD, q.PriceEUR, 3))
	}

	if table := changeTable(q.PercentChanges); table != "" {
		b.WriteString("\n\n🚀 Price changes 🚀\n")
		b.WriteString(table)
	}

	fmt.Fprintf(&b, "\n\n💰MarketCap: $%s 💰", group(q.MarketCap, 2))
	if q.BurnBalance != nil {
		pct := q.BurnPercentage().Mul(decimal.NewFromInt(100))
		fmt.Fprintf(&b, "\n\n🔥Burned: %s | %s%% 🔥", group(*q.BurnBalance, 2), group(pct, 2))
	}
	fmt.Fprintf(&b, "\n\n*data last updated at: %s", q.LastUpdatedAt.UTC().Format(time.RFC3339))
	return b.String()
}

// RenderBalance renders the balance message for a single address.
func RenderBalance(res *domain.BalanceResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The address %s has:", res.Address)
	fmt.Fprintf(&b, "\n%s %s (%s)", group(res.HumanBalance, 12), res.Symbol, valuePair(res.ValueUSD, res.ValueEUR))
	if res.IsBurnAddress {
		b.WriteString("\n🔥 This address is the official burn address 🔥")
	}
	return b.String()
}

func pricePair(usd decimal.Decimal, eur *decimal.Decimal, places int32) string {
	if eur == nil {
		return group(usd, places) + " USD"
	}
	return group(usd, places) + " USD | " + group(*eur, places) + " EUR"
}

func valuePair(usd decimal.Decimal, eur *decimal.Decimal) string {
	if eur == nil {
		return "$" + group(usd, 2)
	}
	return "$" + group(usd, 2) + " | " + group(*eur, 2) + "€"
}

func scale(p *decimal.Decimal, by decimal.Decimal) *decimal.Decimal {
	if p == nil {
		return nil
	}
	v := p.Mul(by)
	return &v
}

// changeTable lays out the non-zero percent-change intervals as two
// aligned rows, headers over arrow-tagged values. Returns "" when no
// interval moved.
func changeTable(changes map[string]float64) string {
	intervals := orderedIntervals(changes)
	if len(intervals) == 0 {
		return ""
	}

	var head, vals strings.Builder
	for i, interval := range intervals {
		value := changes[interval]
		arrow := "⬆"
		if value < 0 {
			arrow = "⬇"
		}
		cell := fmt.Sprintf("%s %.2f%%", arrow, value)

		width := len([]rune(cell))
		if w := len([]rune(interval)); w > width {
			width = w
		}
		if i > 0 {
			head.WriteString("   ")
			vals.WriteString("   ")
		}
		head.WriteString(pad(interval, width))
		vals.WriteString(pad(cell, width))
	}
	return head.String() + "\n" + vals.String()
}

func pad(s string, width int) string {
	if n := width - len([]rune(s)); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

func orderedIntervals(changes map[string]float64) []string {
	canonical := make(map[string]bool, len(intervalOrder))
	out := make([]string, 0, len(changes))
	for _, k := range intervalOrder {
		canonical[k] = true
		if changes[k] != 0 {
			out = append(out, k)
		}
	}
	var rest []string
	for k, v := range changes {
		if v != 0 && !canonical[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// group formats a decimal with fixed places and thousands separators
// in the integer part.
func group(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}
	if hasFrac {
		return sign + intPart + "." + frac
	}
	return sign + intPart
}
