package processor

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"lottery-hub/internal/apperr"
	"lottery-hub/internal/models"
)

const notAvailable = "N/A"

var (
	twoDigits       = regexp.MustCompile(`^\d{2}$`)
	numberCellStyle = regexp.MustCompile(`(?i)width:\s*30px`)
	millonCode      = regexp.MustCompile(`[A-Z]{3}\d{5}`)
	millonDate      = regexp.MustCompile(`(?i)^\d{1,2}\s+[A-Z]{3}\s+\d{2}(?:\s*-\s*\d{1,2}\s+[A-Z]{3}\s+\d{2})?$`)
	drawDate        = regexp.MustCompile(`\d{1,2}\s+[A-Z]{3}\s+\d{4}(?:\s*-\s*\d{1,2}\s+[A-Z]{3}\s+\d{4})?`)
	price           = regexp.MustCompile(`([\d,]+)\s*EUR`)
	betCount        = regexp.MustCompile(`(?i)(\d+)\s*apuesta`)
	balance         = regexp.MustCompile(`(?i)saldo actual es[:\s]*([\d,]+)\s*€`)
	reference       = regexp.MustCompile(`\d{5}-\d{4}-\d{5}-\d{5}-\d{5}-\d{5}-\d{5}`)
)

// cell is a table cell without nested cells.
type cell struct {
	text  string
	style string
}

// page is the part of the confirmation email the extractor looks at.
type page struct {
	cells      []cell
	text       string
	millonDate string
}

// ExtractTicket reads the ticket details out of the confirmation email body.
// The combination is mandatory, every other field is optional.
func ExtractTicket(body string) (models.TicketRecord, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return models.TicketRecord{}, apperr.Parse(err, "parse ticket html")
	}

	p := scan(doc)
	numbers, stars := combination(p.cells)
	if len(numbers) != 5 || len(stars) != 2 {
		return models.TicketRecord{}, apperr.Parse(nil,
			"ticket template not recognized: found %d numbers and %d stars", len(numbers), len(stars))
	}

	record := models.TicketRecord{
		Numbers:    numbers,
		Stars:      stars,
		MillonCode: millonCode.FindString(p.text),
		MillonDate: p.millonDate,
		DrawDate:   drawDate.FindString(p.text),
		Reference:  reference.FindString(p.text),
		BetCount:   "1",
	}
	if m := price.FindStringSubmatch(p.text); m != nil {
		record.Price = m[1] + " EUR"
	}
	if m := betCount.FindStringSubmatch(p.text); m != nil {
		record.BetCount = m[1]
	}
	if m := balance.FindStringSubmatch(p.text); m != nil {
		record.Balance = m[1] + "€"
	}

	return record, nil
}

// combination applies the template rules: number cells are the two-digit
// cells styled width:30px, the last five before the "+" cell are the
// numbers and the first two after it are the stars.
func combination(cells []cell) ([]string, []string) {
	separator := -1
	for i, c := range cells {
		if c.text == "+" {
			separator = i
			break
		}
	}

	var numbers, stars []string
	if separator >= 0 {
		var before, after []string
		for i, c := range cells {
			if !twoDigits.MatchString(c.text) || !numberCellStyle.MatchString(c.style) {
				continue
			}
			if i < separator {
				before = append(before, c.text)
			} else {
				after = append(after, c.text)
			}
		}
		numbers = lastN(before, 5)
		stars = firstN(after, 2)
	}

	if len(numbers) == 0 {
		// Sin separador: cualquier celda de dos cifras entre 01 y 50
		var candidates []string
		for _, c := range cells {
			if !twoDigits.MatchString(c.text) {
				continue
			}
			if n, _ := strconv.Atoi(c.text); n >= 1 && n <= 50 {
				candidates = append(candidates, c.text)
			}
		}
		if len(candidates) >= 7 {
			numbers = candidates[:5]
			stars = candidates[5:7]
		}
	}

	return numbers, stars
}

func scan(doc *html.Node) page {
	var (
		p           page
		words       []string
		afterMillon bool
	)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Head:
				return
			case atom.Td:
				if !hasDescendant(n, atom.Td) {
					p.cells = append(p.cells, cell{
						text:  strings.TrimSpace(textOf(n)),
						style: attr(n, "style"),
					})
				}
			case atom.Img:
				if strings.Contains(attr(n, "src"), "game_millon_ticket.gif") {
					afterMillon = true
				}
			case atom.P:
				if afterMillon && p.millonDate == "" {
					text := strings.Join(strings.Fields(textOf(n)), " ")
					if millonDate.MatchString(text) {
						p.millonDate = text
						afterMillon = false
					}
				}
			}
		}
		if n.Type == html.TextNode {
			words = append(words, strings.Fields(n.Data)...)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	p.text = strings.Join(words, " ")
	return p
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return sb.String()
}

func hasDescendant(n *html.Node, a atom.Atom) bool {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.DataAtom == a {
			return true
		}
		if hasDescendant(child, a) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func lastN(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

func firstN(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
