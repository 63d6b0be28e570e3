package sanitizer

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reKeepPlateChars = regexp.MustCompile(`[^0-9A-Z-]+`)
	reMultiDash      = regexp.MustCompile(`-+`)

	supportedRegions = []string{
		"US",
		"IL",
	}
)

func trimAndUpper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func collapseDashes(s string) string {
	s = reMultiDash.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SanitizePlate normalizes a vehicle plate number to uppercase letters,
// digits and single dashes, so "  ab-123--cd " and "AB-123-CD" compare equal.
func SanitizePlate(input string) string {
	p := Pipeline{
		trimAndUpper,
		func(s string) string { return reKeepPlateChars.ReplaceAllString(s, "-") },
		collapseDashes,
	}
	return p.Apply(input)
}

// SanitizePhone normalizes a contact phone to E.164, trying each supported
// region in turn. Unparseable input comes back empty.
func SanitizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err == nil && phonenumbers.IsValidNumber(parsedNumber) {
			return phonenumbers.Format(parsedNumber, phonenumbers.E164)
		}
	}
	return ""
}
