// Package convert rasterizes menu PDFs into PNG images, one per page.
package convert

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// Error describes a failed PDF conversion.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("converting PDF: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Image is one rasterized page.
type Image struct {
	// Page is the zero-based page index.
	Page int
	// PNG is the encoded image.
	PNG []byte
}

// Converter renders PDF pages to PNG.
type Converter struct {
	maxPages int
}

// New creates a Converter. maxPages caps the number of rendered pages;
// zero or negative means all pages.
func New(maxPages int) *Converter {
	return &Converter{maxPages: maxPages}
}

// Convert renders each page of the PDF to a PNG image, in page order.
// The output is deterministic for identical input bytes. Malformed or
// empty documents yield an *Error.
func (c *Converter) Convert(pdf []byte) ([]Image, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, &Error{Err: err}
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages == 0 {
		return nil, &Error{Err: fmt.Errorf("document has no pages")}
	}
	if c.maxPages > 0 && pages > c.maxPages {
		pages = c.maxPages
	}

	images := make([]Image, 0, pages)
	for n := 0; n < pages; n++ {
		img, err := doc.Image(n)
		if err != nil {
			return nil, &Error{Err: fmt.Errorf("rendering page %d: %w", n, err)}
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, &Error{Err: fmt.Errorf("encoding page %d: %w", n, err)}
		}

		images = append(images, Image{Page: n, PNG: buf.Bytes()})
	}

	return images, nil
}
