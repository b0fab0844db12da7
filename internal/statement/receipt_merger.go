package statement

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
)

// ReceiptMerger appends uploaded receipt files as full-page images to a
// rendered statement. Merging is best effort: a corrupt or unreadable
// receipt is reported and skipped, never aborts the merge.
type ReceiptMerger struct {
	logger *zap.Logger
}

// NewReceiptMerger creates a new ReceiptMerger.
func NewReceiptMerger(logger *zap.Logger) *ReceiptMerger {
	return &ReceiptMerger{logger: logger}
}

// MergeResult reports which receipts were attached and which were skipped,
// so callers can inspect completeness without parsing log output.
type MergeResult struct {
	Attached []string         `json:"attached"`
	Skipped  []SkippedReceipt `json:"skipped,omitempty"`
}

// SkippedReceipt identifies one receipt that could not be merged.
type SkippedReceipt struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// Complete reports whether every receipt was attached.
func (r *MergeResult) Complete() bool {
	return len(r.Skipped) == 0
}

// Append renders each receipt's pages onto new pages at the end of the
// statement document, preserving the order of receiptPaths.
func (m *ReceiptMerger) Append(pdf *gofpdf.Fpdf, receiptPaths []string) *MergeResult {
	result := &MergeResult{}

	for i, path := range receiptPaths {
		pages, err := m.receiptImages(path)
		if err != nil {
			m.logger.Warn("Skipping unreadable receipt",
				zap.String("receipt", path),
				zap.Error(err))
			result.Skipped = append(result.Skipped, SkippedReceipt{
				File:   filepath.Base(path),
				Reason: err.Error(),
			})
			continue
		}

		for pageNum, imgBytes := range pages {
			name := fmt.Sprintf("receipt_%d_%d", i, pageNum)
			m.appendImagePage(pdf, name, imgBytes)
		}
		result.Attached = append(result.Attached, filepath.Base(path))

		m.logger.Debug("Receipt merged",
			zap.String("receipt", path),
			zap.Int("page_count", len(pages)))
	}

	return result
}

// receiptImages converts one receipt file into a JPEG image per page.
// PDF receipts are rendered page by page via mupdf; image receipts are
// decoded and re-encoded, which also validates them.
func (m *ReceiptMerger) receiptImages(path string) ([][]byte, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("receipt file not found: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return m.renderPDFPages(path)
	case ".jpg", ".jpeg", ".png":
		return m.readImageFile(path, ext)
	default:
		return nil, fmt.Errorf("unsupported receipt type: %s", ext)
	}
}

func (m *ReceiptMerger) renderPDFPages(path string) ([][]byte, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var pages [][]byte
	for pageNum := 0; pageNum < doc.NumPage(); pageNum++ {
		img, err := doc.Image(pageNum)
		if err != nil {
			m.logger.Warn("Failed to render receipt page",
				zap.String("receipt", path),
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}
		imgBytes, err := encodeJPEG(img)
		if err != nil {
			m.logger.Warn("Failed to encode receipt page",
				zap.String("receipt", path),
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}
		pages = append(pages, imgBytes)
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages extracted from PDF")
	}
	return pages, nil
}

func (m *ReceiptMerger) readImageFile(path, ext string) ([][]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	var img image.Image
	switch ext {
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(file)
	case ".png":
		img, err = png.Decode(file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	imgBytes, err := encodeJPEG(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return [][]byte{imgBytes}, nil
}

// appendImagePage adds one page holding the image, scaled to fit inside the
// page margins while keeping its aspect ratio.
func (m *ReceiptMerger) appendImagePage(pdf *gofpdf.Fpdf, name string, imgBytes []byte) {
	opts := gofpdf.ImageOptions{ImageType: "JPG"}
	info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(imgBytes))
	if info == nil || pdf.Err() {
		return
	}

	pageW, pageH := pdf.GetPageSize()
	left, top, right, bottom := pdf.GetMargins()
	availW := pageW - left - right
	availH := pageH - top - bottom

	scale := availW / info.Width()
	if hScale := availH / info.Height(); hScale < scale {
		scale = hScale
	}

	pdf.AddPage()
	pdf.ImageOptions(name, left, top, info.Width()*scale, info.Height()*scale, false, opts, 0, "")
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
