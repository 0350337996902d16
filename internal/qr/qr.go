// Package qr renders provisioning URIs as QR codes for enrollment into
// authenticator apps.
package qr

import (
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

// ErrEmptyContent is returned when content string is empty or only whitespace
var ErrEmptyContent = errors.New("content cannot be empty")

// defaultSize is the PNG size in pixels used when no size is specified
const defaultSize = 256

// GeneratePNG creates a QR code image in PNG format with the given content.
func GeneratePNG(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = defaultSize
	}
	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, err
	}
	return png, nil
}

// GenerateTerminal renders the QR code as a block-character string for
// direct terminal display.
func GenerateTerminal(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}
	code, err := skipqrcode.New(content, skipqrcode.Medium)
	if err != nil {
		return "", err
	}
	return code.ToSmallString(false), nil
}
