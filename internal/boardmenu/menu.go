package boardmenu

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"datfeed/gateway/internal/models"
)

// ErrBoardNotFound is returned when the menu has no entry for a board.
var ErrBoardNotFound = errors.New("board not found")

var boardPathRe = regexp.MustCompile(`^/([^/]+)/$`)

// ParseMenu extracts board links of the form http://{host}/{board}/ from a
// bbsmenu.html document. Other links are skipped.
func ParseMenu(r io.Reader) ([]models.MenuBoard, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse board menu: %w", err)
	}

	var boards []models.MenuBoard
	skipped := 0
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u, err := url.Parse(strings.TrimSpace(href))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			skipped++
			return
		}
		m := boardPathRe.FindStringSubmatch(u.Path)
		if m == nil {
			skipped++
			return
		}
		boards = append(boards, models.MenuBoard{
			Host:  strings.ToLower(u.Host),
			Board: m[1],
			Title: strings.TrimSpace(s.Text()),
		})
	})

	log.Debug().
		Int("boards", len(boards)).
		Int("skipped", skipped).
		Msg("Parsed board menu")

	return boards, nil
}

// Directory resolves boards to the host currently serving them.
type Directory struct {
	boards []models.MenuBoard
	byName map[string]models.MenuBoard
}

// NewDirectory indexes boards. The first entry for a board wins.
func NewDirectory(boards []models.MenuBoard) *Directory {
	d := &Directory{
		boards: boards,
		byName: make(map[string]models.MenuBoard, len(boards)),
	}
	for _, b := range boards {
		if _, ok := d.byName[b.Board]; !ok {
			d.byName[b.Board] = b
		}
	}
	return d
}

// Host returns the host serving board.
func (d *Directory) Host(board string) (string, error) {
	b, ok := d.byName[board]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrBoardNotFound, board)
	}
	return b.Host, nil
}

func (d *Directory) Boards() []models.MenuBoard {
	return d.boards
}

func (d *Directory) Len() int {
	return len(d.byName)
}
