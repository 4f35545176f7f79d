package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// QR value and download URL templates. The encoded value is a stable
// reference to the car resource, derived only from the car id.
const (
	qrValueTemplate    = "https://carqr.app/cars/%s"
	qrDownloadTemplate = "https://cdn.carqr.app/qr/%s.%s"
	qrWidthPrint       = 500 // pdf
	qrWidthScreen      = 300 // svg, png
)

// QRService renders scannable codes for car profiles
type QRService struct{}

// NewQRService creates the renderer
func NewQRService() *QRService {
	return &QRService{}
}

// ValueForCar builds the canonical URL a generated code encodes
func (s *QRService) ValueForCar(carID string) string {
	return fmt.Sprintf(qrValueTemplate, carID)
}

// DownloadURL builds the CDN location for a persisted QR record
func (s *QRService) DownloadURL(qrID, format string) string {
	return fmt.Sprintf(qrDownloadTemplate, qrID, format)
}

// RenderDataURL encodes value as a QR matrix and returns it as a base64
// PNG data URL sized for the requested output format.
func (s *QRService) RenderDataURL(value, format string) (string, error) {
	width := qrWidthScreen
	if format == "pdf" {
		width = qrWidthPrint
	}

	code, err := qr.Encode(value, qr.M, qr.Auto)
	if err != nil {
		return "", fmt.Errorf("qr encode failed: %w", err)
	}
	code, err = barcode.Scale(code, width, width)
	if err != nil {
		return "", fmt.Errorf("qr scale failed: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return "", fmt.Errorf("png encode failed: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
