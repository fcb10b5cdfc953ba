package qrcode

import (
	"net/url"
	"strings"

	"profilemap/internal/domain/service"
	"profilemap/internal/errors"

	"github.com/skip2/go-qrcode"
)

const defaultSize = 256

type qrcodeService struct {
	size                 int
	baseURL              string
	errorCorrectionLevel qrcode.RecoveryLevel
}

// NewQRCodeService creates a new QR code service instance
func NewQRCodeService(size int, errorCorrectionLevel, baseURL string) service.QRCodeService {
	// Set error correction level
	var level qrcode.RecoveryLevel
	switch strings.ToUpper(errorCorrectionLevel) {
	case "L":
		level = qrcode.Low
	case "Q":
		level = qrcode.High
	case "H":
		level = qrcode.Highest
	default:
		level = qrcode.Medium
	}

	if size <= 0 {
		size = defaultSize
	}

	return &qrcodeService{
		size:                 size,
		baseURL:              strings.TrimRight(baseURL, "/"),
		errorCorrectionLevel: level,
	}
}

// ProfileURL returns the detail view link for profileID
func (s *qrcodeService) ProfileURL(profileID string) string {
	return s.baseURL + "/profiles/" + url.PathEscape(profileID)
}

// GenerateProfileQR encodes the profile's detail link as a PNG
func (s *qrcodeService) GenerateProfileQR(profileID string) ([]byte, error) {
	if strings.TrimSpace(profileID) == "" {
		return nil, errors.New("profile id is required")
	}

	qrCode, err := qrcode.New(s.ProfileURL(profileID), s.errorCorrectionLevel)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create QR code")
	}

	pngBytes, err := qrCode.PNG(s.size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate PNG")
	}

	return pngBytes, nil
}
