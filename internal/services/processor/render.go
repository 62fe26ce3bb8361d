package processor

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"lottery-hub/internal/models"
)

const (
	officialResultsURL = "https://www.loteriasyapuestas.es/es/resultados"
	separator          = "━━━━━━━━━━━━━━━━━━━━━━━━"
	drawDateLayout     = "2006-01-02"
)

var amounts = message.NewPrinter(language.English)

// RenderResults builds the Markdown results message.
func RenderResults(draw models.DrawResult, sel models.PlayerSelection, outcome models.MatchOutcome) string {
	lines := []string{
		fmt.Sprintf("🎰 *Euromillions Result - %s*", draw.Date.Format(drawDateLayout)),
		"",
		"🏆 *Winning combination:*",
		"   Numbers: " + joinInts(draw.Numbers, nil),
		"   Stars: " + joinInts(draw.Stars, nil),
		"",
		"🎫 *Your combination:*",
		"   Numbers: " + joinInts(sel.Numbers, outcome.MatchedNumbers),
		"   Stars: " + joinInts(sel.Stars, outcome.MatchedStars),
		"",
		"📊 *Results:*",
		fmt.Sprintf("   Matched numbers: %d/5", outcome.NumberMatches),
		fmt.Sprintf("   Matched stars: %d/2", outcome.StarMatches),
		"",
	}

	if outcome.Tier.Wins() {
		lines = append(lines,
			"💰 *YOU WON!*",
			fmt.Sprintf("   Category: %s", outcome.Tier.Label),
		)
		if outcome.Payout != nil && outcome.Payout.Amount > 0 {
			lines = append(lines,
				"   Prize: "+FormatEuros(outcome.Payout.Amount),
				fmt.Sprintf("   Winners in this category: %d", outcome.Payout.Winners),
			)
		} else {
			lines = append(lines, "   Prize: not published yet")
		}
	} else {
		lines = append(lines, "😢 No prize this time loosers, you are still poor")
	}

	if outcome.Jackpot() {
		lines = append(lines, "", "🎉🎉🎉 *JACKPOT!!! YOU ARE A MILLIONAIRE!!!* 🎉🎉🎉")
	}

	if draw.HasJackpotWinner {
		lines = append(lines, "", "ℹ️ This draw had a jackpot winner!")
	}

	lines = append(lines, "official results: "+officialResultsURL)
	return strings.Join(lines, "\n")
}

// RenderTicket builds the Markdown receipt for a ticket.
func RenderTicket(ticket models.TicketRecord) string {
	numbers := notAvailable
	if len(ticket.Numbers) > 0 {
		numbers = strings.Join(ticket.Numbers, " - ")
	}
	stars := notAvailable
	if len(ticket.Stars) > 0 {
		stars = strings.Join(ticket.Stars, " - ")
	}

	drawDate := orNA(ticket.DrawDate)
	label := "Sorteo"
	if strings.Contains(drawDate, " - ") {
		label = "Sorteos"
	}

	betCount := ticket.BetCount
	if betCount == "" {
		betCount = "1"
	}

	lines := []string{
		"🎫 *EUROMILLONES - Resguardo*",
		separator,
		"",
		"📍 *Tu combinación:*",
		"   Números: " + numbers,
		"   Estrellas: " + stars,
		"",
		separator,
		"",
		"🎰 *EL MILLÓN*",
		"   Código: " + orNA(ticket.MillonCode),
		"   Fecha: " + orNA(ticket.MillonDate),
		"",
		separator,
		"",
		fmt.Sprintf("📅 %s: %s", label, drawDate),
		"💶 Importe: " + orNA(ticket.Price),
		"🎟️ Apuestas: " + betCount,
		"",
		separator,
		"",
		"💰 *Saldo disponible:* " + orNA(ticket.Balance),
		"",
		"🔖 Ref: " + orNA(ticket.Reference),
	}
	return strings.Join(lines, "\n")
}

// FormatEuros renders an amount as €1,234.56.
func FormatEuros(amount float64) string {
	return amounts.Sprintf("€%.2f", amount)
}

// joinInts renders values as zero-padded two-digit numbers, bracketing the
// ones present in matched.
func joinInts(values, matched []int) string {
	hit := make(map[int]bool, len(matched))
	for _, m := range matched {
		hit[m] = true
	}

	parts := make([]string, 0, len(values))
	for _, v := range values {
		s := fmt.Sprintf("%02d", v)
		if hit[v] {
			s = "[" + s + "]"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " - ")
}
