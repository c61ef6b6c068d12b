package convert

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

// minimalPDF builds a valid PDF with the given number of empty pages.
func minimalPDF(pages int) []byte {
	var buf bytes.Buffer
	var offsets []int

	write := func(s string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(s)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", 3+i)
	}

	write("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	write(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", kids, pages))
	for i := 0; i < pages; i++ {
		write(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] >>\nendobj\n", 3+i))
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefStart)

	return buf.Bytes()
}

func TestConvert_OneImagePerPage(t *testing.T) {
	images, err := New(0).Convert(minimalPDF(2))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(images))
	}
	for i, img := range images {
		if img.Page != i {
			t.Errorf("image %d has page index %d", i, img.Page)
		}
		if !bytes.HasPrefix(img.PNG, []byte("\x89PNG")) {
			t.Errorf("image %d is not a PNG", i)
		}
	}
}

func TestConvert_Deterministic(t *testing.T) {
	pdf := minimalPDF(2)

	first, err := New(0).Convert(pdf)
	if err != nil {
		t.Fatalf("first Convert: %v", err)
	}
	second, err := New(0).Convert(pdf)
	if err != nil {
		t.Fatalf("second Convert: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("page counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !bytes.Equal(first[i].PNG, second[i].PNG) {
			t.Errorf("page %d differs between conversions", i)
		}
	}
}

func TestConvert_PageCap(t *testing.T) {
	images, err := New(1).Convert(minimalPDF(3))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("expected capped single image, got %d", len(images))
	}
	if images[0].Page != 0 {
		t.Errorf("expected first page, got %d", images[0].Page)
	}
}

func TestConvert_MalformedPDF(t *testing.T) {
	_, err := New(0).Convert([]byte("this is not a pdf"))
	if err == nil {
		t.Fatal("expected error for malformed input")
	}
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
}
