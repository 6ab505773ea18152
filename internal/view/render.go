// Package view renders listings for the terminal browser.
package view

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/CyberPidgi/rentiful/internal/compose"
	"github.com/CyberPidgi/rentiful/internal/filters"
	"github.com/CyberPidgi/rentiful/internal/models"
)

const (
	fallbackWidth = 80
	cardWidth     = 36
	cardGap       = 2
)

// Viewer is who is looking at the listings
type Viewer struct {
	CognitoID string
	Role      string
}

// ShowsFavorites reports whether the favorite marker is drawn. Only an
// authenticated tenant has favorites.
func (v Viewer) ShowsFavorites() bool {
	return v.CognitoID != "" && v.Role == models.RoleTenant
}

// Renderer draws listings as a grid of cards or a list of lines
type Renderer struct {
	width func() int
}

// NewRenderer sizes the grid from the terminal on fd
func NewRenderer(fd int) *Renderer {
	return &Renderer{width: func() int { return terminalWidth(fd) }}
}

// NewFixedRenderer renders for a fixed column count
func NewFixedRenderer(width int) *Renderer {
	return &Renderer{width: func() int { return width }}
}

func terminalWidth(fd int) int {
	if !term.IsTerminal(fd) {
		return fallbackWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return fallbackWidth
	}
	return w
}

// Columns is the number of cards per grid row
func (r *Renderer) Columns() int {
	n := (r.width() + cardGap) / (cardWidth + cardGap)
	if n < 1 {
		return 1
	}
	return n
}

func (r *Renderer) Render(w io.Writer, listings []compose.Listing, mode filters.ViewMode, viewer Viewer) error {
	if len(listings) == 0 {
		_, err := fmt.Fprintln(w, "No listings found.")
		return err
	}
	if mode == filters.ViewList {
		return r.renderList(w, listings, viewer)
	}
	return r.renderGrid(w, listings, viewer)
}

func (r *Renderer) renderList(w io.Writer, listings []compose.Listing, viewer Viewer) error {
	for i := range listings {
		l := &listings[i]
		parts := []string{
			fmt.Sprintf("#%d %s", l.ID, l.Name),
			price(l.PricePerMonth),
			rooms(l),
			l.Location.City,
			rating(l.Rating),
		}
		line := strings.Join(parts, " | ")
		if viewer.ShowsFavorites() {
			line = marker(l) + " " + line
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderGrid(w io.Writer, listings []compose.Listing, viewer Viewer) error {
	cols := r.Columns()
	for start := 0; start < len(listings); start += cols {
		end := start + cols
		if end > len(listings) {
			end = len(listings)
		}

		cards := make([][]string, 0, end-start)
		for i := start; i < end; i++ {
			cards = append(cards, card(&listings[i], viewer))
		}

		for line := 0; line < len(cards[0]); line++ {
			cells := make([]string, len(cards))
			for i, c := range cards {
				cells[i] = pad(c[line], cardWidth)
			}
			row := strings.TrimRight(strings.Join(cells, strings.Repeat(" ", cardGap)), " ")
			if _, err := fmt.Fprintln(w, row); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// card returns the fixed-height lines of one grid cell
func card(l *compose.Listing, viewer Viewer) []string {
	border := "+" + strings.Repeat("-", cardWidth-2) + "+"
	lines := []string{
		border,
		cell(fmt.Sprintf("#%d %s", l.ID, l.Name)),
		cell(price(l.PricePerMonth) + "  " + rooms(l)),
		cell(l.Location.City),
		cell(rating(l.Rating)),
	}
	if viewer.ShowsFavorites() {
		lines = append(lines, cell(marker(l)+" favorite"))
	}
	return append(lines, border)
}

func cell(s string) string {
	inner := cardWidth - 4
	return "| " + pad(truncate(s, inner), inner) + " |"
}

func marker(l *compose.Listing) string {
	if l.IsFavorite != nil && *l.IsFavorite {
		return "[x]"
	}
	return "[ ]"
}

func price(v float64) string {
	return "$" + thousands(int64(v)) + "/mo"
}

func rooms(l *compose.Listing) string {
	return fmt.Sprintf("%d bd %s ba", l.Beds, strconv.FormatFloat(l.Baths, 'f', -1, 64))
}

func rating(r compose.Rating) string {
	if r.Display == compose.NoRating {
		return "no rating"
	}
	return fmt.Sprintf("%s stars (%d)", r.Display, r.Count)
}

func thousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, ch := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "~"
}

func pad(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}
