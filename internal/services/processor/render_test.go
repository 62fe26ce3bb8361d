package processor

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lottery-hub/internal/models"
	"lottery-hub/internal/services/matcher"
)

func sampleDraw() models.DrawResult {
	return models.DrawResult{
		Date:    time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC),
		Numbers: []int{7, 12, 21, 33, 49},
		Stars:   []int{3, 9},
		Prizes: []models.PrizePayout{
			{Numbers: 3, Stars: 1, Amount: 1234.5, Winners: 812},
		},
	}
}

func TestRenderResults_Winner(t *testing.T) {
	draw := sampleDraw()
	sel := models.PlayerSelection{Numbers: []int{7, 14, 21, 35, 49}, Stars: []int{3, 11}}
	outcome, err := matcher.Evaluate(sel, draw)
	assert.NoError(t, err)

	text := RenderResults(draw, sel, outcome)

	assert.True(t, strings.HasPrefix(text, "🎰 *Euromillions Result - 2025-06-17*"))
	assert.Contains(t, text, "   Numbers: 07 - 12 - 21 - 33 - 49")
	assert.Contains(t, text, "   Numbers: [07] - 14 - [21] - 35 - [49]")
	assert.Contains(t, text, "   Stars: [03] - 11")
	assert.Contains(t, text, "Matched numbers: 3/5")
	assert.Contains(t, text, "Matched stars: 1/2")
	assert.Contains(t, text, "💰 *YOU WON!*")
	assert.Contains(t, text, "Category: 3 + 1")
	assert.Contains(t, text, "Prize: €1,234.50")
	assert.Contains(t, text, "Winners in this category: 812")
	assert.NotContains(t, text, "JACKPOT")
	assert.True(t, strings.HasSuffix(text, "official results: https://www.loteriasyapuestas.es/es/resultados"))
}

func TestRenderResults_NoPrize(t *testing.T) {
	draw := sampleDraw()
	draw.HasJackpotWinner = true
	sel := models.PlayerSelection{Numbers: []int{1, 2, 3, 4, 5}, Stars: []int{1, 2}}
	outcome, err := matcher.Evaluate(sel, draw)
	assert.NoError(t, err)

	text := RenderResults(draw, sel, outcome)

	assert.Contains(t, text, "😢 No prize this time loosers, you are still poor")
	assert.Contains(t, text, "ℹ️ This draw had a jackpot winner!")
	assert.NotContains(t, text, "YOU WON")
}

func TestRenderResults_Jackpot(t *testing.T) {
	draw := sampleDraw()
	sel := models.PlayerSelection{Numbers: draw.Numbers, Stars: draw.Stars}
	outcome, err := matcher.Evaluate(sel, draw)
	assert.NoError(t, err)

	text := RenderResults(draw, sel, outcome)

	assert.Contains(t, text, "🎉🎉🎉 *JACKPOT!!! YOU ARE A MILLIONAIRE!!!* 🎉🎉🎉")
	assert.Contains(t, text, "Prize: not published yet")
}

func TestRenderTicket(t *testing.T) {
	text := RenderTicket(models.TicketRecord{
		Numbers:  []string{"07", "12", "21", "33", "49"},
		Stars:    []string{"03", "09"},
		DrawDate: "27 ENE 2026 - 30 ENE 2026",
		Price:    "5,00 EUR",
	})

	assert.True(t, strings.HasPrefix(text, "🎫 *EUROMILLONES - Resguardo*"))
	assert.Contains(t, text, "   Números: 07 - 12 - 21 - 33 - 49")
	assert.Contains(t, text, "   Estrellas: 03 - 09")
	assert.Contains(t, text, "📅 Sorteos: 27 ENE 2026 - 30 ENE 2026")
	assert.Contains(t, text, "💶 Importe: 5,00 EUR")
	assert.Contains(t, text, "🎟️ Apuestas: 1")
	assert.Contains(t, text, "   Código: N/A")
	assert.Contains(t, text, "💰 *Saldo disponible:* N/A")
	assert.True(t, strings.HasSuffix(text, "🔖 Ref: N/A"))
}

func TestRenderTicket_SingleDraw(t *testing.T) {
	text := RenderTicket(models.TicketRecord{DrawDate: "14 OCT 2025"})

	assert.Contains(t, text, "📅 Sorteo: 14 OCT 2025")
	assert.Contains(t, text, "   Números: N/A")
}

func TestFormatEuros(t *testing.T) {
	assert.Equal(t, "€13.52", FormatEuros(13.52))
	assert.Equal(t, "€87,000,000.00", FormatEuros(87000000))
}
