package service

// QRCodeService defines the interface for profile share codes
type QRCodeService interface {
	// ProfileURL returns the detail view URL encoded into the QR code
	ProfileURL(profileID string) string

	// GenerateProfileQR returns a PNG QR code pointing at the profile's detail view
	GenerateProfileQR(profileID string) ([]byte, error)
}
