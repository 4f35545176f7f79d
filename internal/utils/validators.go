package utils

import "regexp"

var (
	// Indian mobile format: 10 digits starting 6-9
	phoneRegex = regexp.MustCompile(`^[6-9]\d{9}$`)
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Indian registration plate format: MH01AB1234
	carNumberRegex = regexp.MustCompile(`^[A-Z]{2}\d{2}[A-Z]{2}\d{4}$`)
)

// ValidatePhone reports whether phone is a valid 10-digit Indian mobile number
func ValidatePhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// ValidateEmail reports whether email looks like a deliverable address
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidateCarNumber reports whether carNumber matches the Indian plate format
func ValidateCarNumber(carNumber string) bool {
	return carNumberRegex.MatchString(carNumber)
}
