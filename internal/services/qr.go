package services

import (
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"

	"xui-keys-bot/internal/constants"
)

// QRService renders connection links as QR codes
type QRService struct {
	logger *logrus.Logger
}

// NewQRService creates a new QR code service
func NewQRService(logger *logrus.Logger) *QRService {
	return &QRService{
		logger: logger,
	}
}

// GenerateQR returns a PNG QR code for the link
func (s *QRService) GenerateQR(link string) ([]byte, error) {
	s.logger.Debugf("Generating QR code for link of %d bytes", len(link))

	png, err := qrcode.Encode(link, qrcode.Medium, constants.QRCodeSize)
	if err != nil {
		s.logger.Errorf("Failed to generate QR code: %v", err)
		return nil, err
	}

	return png, nil
}
