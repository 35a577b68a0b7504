// Package screenshot renders page images for issues and stores them through
// an ObjectStore (local directory or S3-compatible bucket).
//
// Pages are drawn from the extracted page text in a fixed-width face rather
// than rasterised from the PDF, so the image shows exactly the text the
// detectors saw.
package screenshot

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
)

// Ensure Renderer implements the interface.
var _ driven.ScreenshotService = (*Renderer)(nil)

// Page geometry: US Letter at 96 DPI.
const (
	DefaultWidth  = 816
	DefaultHeight = 1056
	margin        = 48
	lineGap       = 2
	contentType   = "image/png"
)

var (
	paper   = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	ink     = color.RGBA{R: 0x1f, G: 0x23, B: 0x28, A: 0xff}
	subdued = color.RGBA{R: 0x8c, G: 0x95, B: 0x9f, A: 0xff}
	rule    = color.RGBA{R: 0xd0, G: 0xd7, B: 0xde, A: 0xff}

	unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// Renderer draws page text to PNG and uploads it.
type Renderer struct {
	store  driven.ObjectStore
	face   font.Face
	width  int
	height int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize sets the image dimensions in pixels.
func WithSize(width, height int) Option {
	return func(r *Renderer) {
		if width > 2*margin && height > 2*margin {
			r.width = width
			r.height = height
		}
	}
}

// NewRenderer creates a renderer that writes images to store.
func NewRenderer(store driven.ObjectStore, opts ...Option) *Renderer {
	r := &Renderer{
		store:  store,
		face:   basicfont.Face7x13,
		width:  DefaultWidth,
		height: DefaultHeight,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Capture renders 1-indexed page of doc and returns the stored image reference.
func (r *Renderer) Capture(ctx context.Context, raw *domain.RawDocument, doc *domain.Document, page int) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("%w: no document to render", domain.ErrInvalidInput)
	}
	if page < 1 || page > doc.PageCount() {
		return "", fmt.Errorf("%w: page %d outside 1..%d", domain.ErrInvalidInput, page, doc.PageCount())
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := r.Render(doc, page)
	if err != nil {
		return "", err
	}
	return r.store.Put(ctx, ObjectKey(raw, doc, page), data, contentType)
}

// Render returns the PNG encoding of page.
func (r *Renderer) Render(doc *domain.Document, page int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: paper}, image.Point{}, draw.Src)

	metrics := r.face.Metrics()
	lineHeight := (metrics.Height + fixed.I(lineGap)).Ceil()
	advance := font.MeasureString(r.face, "M").Ceil()
	if advance <= 0 {
		advance = 7
	}
	columns := (r.width - 2*margin) / advance
	rows := (r.height - 2*margin) / lineHeight

	header := fmt.Sprintf("%s - page %d of %d", doc.FileName, page, doc.PageCount())
	if doc.Approximate {
		header += " (approximate paging)"
	}
	r.drawLine(img, subdued, margin, margin+metrics.Ascent.Ceil(), truncate(header, columns))

	ruleY := margin + lineHeight + lineHeight/2
	draw.Draw(img, image.Rect(margin, ruleY, r.width-margin, ruleY+1), &image.Uniform{C: rule}, image.Point{}, draw.Src)

	lines := Wrap(doc.Page(page), columns)
	available := rows - 2
	if len(lines) > available && available > 0 {
		lines = append(lines[:available-1], "...")
	}
	y := ruleY + lineHeight
	for _, line := range lines {
		y += lineHeight
		if y > r.height-margin {
			break
		}
		r.drawLine(img, ink, margin, y, line)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding page %d: %w", page, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawLine(dst draw.Image, c color.Color, x, y int, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// Wrap breaks text into lines of at most columns runes, preferring word
// boundaries. Characters the bitmap face cannot draw are decomposed first.
func Wrap(text string, columns int) []string {
	if columns <= 0 {
		return nil
	}
	text = strings.ReplaceAll(norm.NFKD.String(text), "\t", "    ")

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		para = strings.TrimRight(para, " \r")
		if para == "" {
			lines = append(lines, "")
			continue
		}
		var current strings.Builder
		width := 0
		for _, word := range strings.Fields(para) {
			for utf8.RuneCountInString(word) > columns {
				if width > 0 {
					lines = append(lines, current.String())
					current.Reset()
					width = 0
				}
				head, tail := splitRunes(word, columns)
				lines = append(lines, head)
				word = tail
			}
			n := utf8.RuneCountInString(word)
			if width > 0 && width+1+n > columns {
				lines = append(lines, current.String())
				current.Reset()
				width = 0
			}
			if width > 0 {
				current.WriteByte(' ')
				width++
			}
			current.WriteString(word)
			width += n
		}
		if width > 0 {
			lines = append(lines, current.String())
		}
	}
	return lines
}

// ObjectKey names the stored image: <file>/<content hash>/page-NNN.png.
func ObjectKey(raw *domain.RawDocument, doc *domain.Document, page int) string {
	name := doc.FileName
	var content []byte
	if raw != nil {
		if raw.FileName != "" {
			name = raw.FileName
		}
		content = raw.Content
	}
	if content == nil {
		content = []byte(doc.FullText())
	}
	sum := sha256.Sum256(content)

	base := strings.TrimSuffix(path.Base(name), path.Ext(name))
	base = strings.Trim(unsafeKeyChars.ReplaceAllString(base, "-"), "-.")
	if base == "" || base == "." {
		base = "document"
	}
	return fmt.Sprintf("%s/%s/page-%03d.png", base, hex.EncodeToString(sum[:6]), page)
}

func splitRunes(s string, n int) (string, string) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}

func truncate(s string, columns int) string {
	if utf8.RuneCountInString(s) <= columns || columns < 4 {
		return s
	}
	head, _ := splitRunes(s, columns-3)
	return head + "..."
}
