// Package validation checks Iranian plates, phone numbers and request bodies.
package validation

import (
	"errors"
	"regexp"
	"slices"
	"strings"

	"github.com/ukydev/mashinman/internal/jalali"
)

var (
	ErrInvalidLicensePlate = errors.New("invalid license plate")
	ErrInvalidPhone        = errors.New("invalid phone number")
)

const plateLetters = `[آابپتثجچحخدذرزژسشصضطظعغفقکگلمنوهی]`

var platePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[0-9]{2,3}` + plateLetters + `[0-9]{3}$`),
	regexp.MustCompile(`^IR[0-9]{2}[0-9]{3}[A-Z][0-9]{2}$`),
	regexp.MustCompile(`^[0-9]{8,9}$`),
	regexp.MustCompile(`^T[0-9]{2,3}` + plateLetters + `[0-9]{3}$`),
	regexp.MustCompile(`^P[0-9]{2,3}` + plateLetters + `[0-9]{3}$`),
}

var (
	mobilePattern   = regexp.MustCompile(`^(09|989|00989)[0-9]{9}$`)
	landlinePattern = regexp.MustCompile(`^0[1-8][0-9]{8,9}$`)
	phoneStrip      = strings.NewReplacer(" ", "", "-", "", "+", "", "\t", "")
	plateStrip      = strings.NewReplacer(" ", "", "-", "", "\u200c", "")
	unsafeChars     = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "")
)

// NormalizeLicensePlate strips separators, converts digits to ASCII and upper-cases Latin letters.
func NormalizeLicensePlate(plate string) string {
	return strings.ToUpper(plateStrip.Replace(jalali.NormalizeDigits(plate)))
}

// IsValidLicensePlate reports whether plate matches a known Iranian plate layout.
func IsValidLicensePlate(plate string) bool {
	p := NormalizeLicensePlate(plate)
	if p == "" {
		return false
	}
	for _, re := range platePatterns {
		if re.MatchString(p) {
			return true
		}
	}
	return false
}

// ValidateLicensePlate returns the normalized plate or ErrInvalidLicensePlate.
func ValidateLicensePlate(plate string) (string, error) {
	if !IsValidLicensePlate(plate) {
		return "", ErrInvalidLicensePlate
	}
	return NormalizeLicensePlate(plate), nil
}

func stripPhone(phone string) string {
	return phoneStrip.Replace(jalali.NormalizeDigits(phone))
}

// IsMobile reports whether phone is an Iranian mobile number.
func IsMobile(phone string) bool {
	return mobilePattern.MatchString(stripPhone(phone))
}

// IsValidPhone accepts Iranian mobile and landline numbers.
func IsValidPhone(phone string) bool {
	p := stripPhone(phone)
	return mobilePattern.MatchString(p) || landlinePattern.MatchString(p)
}

// NormalizePhone rewrites international mobile prefixes to the local 09 form.
func NormalizePhone(phone string) string {
	p := stripPhone(phone)
	switch {
	case strings.HasPrefix(p, "00989"):
		return "0" + p[4:]
	case strings.HasPrefix(p, "989"):
		return "0" + p[2:]
	}
	return p
}

// ValidatePhone returns the normalized phone number or ErrInvalidPhone.
func ValidatePhone(phone string) (string, error) {
	if !IsValidPhone(phone) {
		return "", ErrInvalidPhone
	}
	return NormalizePhone(phone), nil
}

// Sanitize trims s and removes characters that could break out of HTML attributes.
func Sanitize(s string) string {
	return strings.TrimSpace(unsafeChars.Replace(s))
}

var brands = []string{
	"پراید", "پژو", "دنا", "رانا", "سمند", "آریسان", "آریا", "تیبا",
	"جک S3", "جک S5", "جک S7", "جیلی Emgrand", "جیلی GC9", "خودرو",
	"دی‌اول", "رامیدر", "ساینا", "شاهین", "کوئیک", "موسو", "نایرا",
}

// Brands returns the domestic car brands accepted on vehicle registration.
func Brands() []string {
	return slices.Clone(brands)
}

// IsKnownBrand reports whether brand is in the catalogue.
func IsKnownBrand(brand string) bool {
	return slices.Contains(brands, strings.TrimSpace(brand))
}
