// Package validation holds the input rules for accounts and listings.
// Every function is a pure predicate.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	MinPrice = 10
	MaxPrice = 10000

	MinUsernameLength    = 2
	MaxUsernameLength    = 20
	MaxTitleLength       = 80
	MinDescriptionLength = 20
	MaxDescriptionLength = 2000
	MinPasswordLength    = 6

	maxDotStringLength    = 64
	maxQuotedStringLength = 62
	maxDomainLength       = 63
)

var (
	ipValidator = validator.New()

	dotStringPattern    = regexp.MustCompile("^[A-Za-z0-9!#$%&*+/=?^_`{|}~.-]+$")
	quotedStringPattern = regexp.MustCompile("^[A-Za-z0-9_\\s!#$%&*+,\\-./=?^`{|}~(),:;<>@\\[\\]]+$")
	ldhPattern          = regexp.MustCompile(`^[A-Za-z0-9.-]+$`)
	postalCodePattern   = regexp.MustCompile(`^[ABCEGHJKLMNPRSTVXY]\d[ABCEGHJKLMNPRSTVXY]\s?\d[ABCEGHJKLMNPRSTVXY]\d$`)
)

// ValidateEmail reports whether addr is local@domain where the local part is a
// dot-string or a quoted-string and the domain is an LDH hostname or a
// bracketed IPv4/IPv6 literal.
func ValidateEmail(addr string) bool {
	if strings.Count(addr, "@") != 1 {
		return false
	}
	local, domain, _ := strings.Cut(addr, "@")
	return validLocalPart(local) && validDomain(domain)
}

func validLocalPart(local string) bool {
	if !strings.Contains(local, `"`) {
		return validDotString(local)
	}
	// Quoted-string: the only quotes allowed are the enclosing pair.
	if len(local) < 2 || local[0] != '"' || strings.IndexByte(local[1:], '"') != len(local)-2 {
		return false
	}
	inner := local[1 : len(local)-1]
	n := utf8.RuneCountInString(inner)
	return n >= 1 && n <= maxQuotedStringLength && quotedStringPattern.MatchString(inner)
}

func validDotString(local string) bool {
	if len(local) < 1 || len(local) > maxDotStringLength {
		return false
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
		return false
	}
	return dotStringPattern.MatchString(local)
}

func validDomain(domain string) bool {
	if strings.HasPrefix(domain, "[") && strings.HasSuffix(domain, "]") && len(domain) >= 2 {
		return validAddressLiteral(domain[1 : len(domain)-1])
	}
	return validHostname(domain)
}

// validAddressLiteral accepts plain IPv4 or IPv6. IPv6 with an embedded IPv4
// tail and the "IPv6:" tag form are rejected.
func validAddressLiteral(literal string) bool {
	if strings.Contains(literal, ":") {
		if strings.Contains(literal, ".") {
			return false
		}
		return ipValidator.Var(literal, "required,ipv6") == nil
	}
	return ipValidator.Var(literal, "required,ipv4") == nil
}

func validHostname(domain string) bool {
	if len(domain) < 1 || len(domain) > maxDomainLength {
		return false
	}
	if strings.HasPrefix(domain, "-") || strings.HasSuffix(domain, "-") {
		return false
	}
	if !strings.Contains(domain, ".") || !ldhPattern.MatchString(domain) {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" {
			return false
		}
	}
	return true
}

// IsSpecial reports whether r is ASCII punctuation: 0x21-0x2F, 0x3A-0x40 or 0x7B-0x7E.
func IsSpecial(r rune) bool {
	return (r >= 0x21 && r <= 0x2F) || (r >= 0x3A && r <= 0x40) || (r >= 0x7B && r <= 0x7E)
}

// ValidatePassword requires at least six characters including an ASCII
// uppercase letter, an ASCII lowercase letter and a special character.
func ValidatePassword(pw string) bool {
	if utf8.RuneCountInString(pw) < MinPasswordLength {
		return false
	}
	var upper, lower, special bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case IsSpecial(r):
			special = true
		}
	}
	return upper && lower && special
}

// ValidateUsername requires 2-20 characters (after trimming), no leading or
// trailing space, and letters or digits apart from interior spaces.
func ValidateUsername(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < MinUsernameLength || n > MaxUsernameLength {
		return false
	}
	if strings.HasPrefix(name, " ") || strings.HasSuffix(name, " ") {
		return false
	}
	return isAlphanumeric(strings.ReplaceAll(name, " ", ""))
}

// ValidateShippingAddress requires a non-blank address of letters, digits and spaces.
func ValidateShippingAddress(addr string) bool {
	if strings.TrimSpace(addr) == "" {
		return false
	}
	return isAlphanumeric(strings.ReplaceAll(addr, " ", ""))
}

// ValidateTitle requires 1-80 characters, no leading or trailing space and no punctuation.
func ValidateTitle(title string) bool {
	n := utf8.RuneCountInString(title)
	if n < 1 || n > MaxTitleLength {
		return false
	}
	if strings.HasPrefix(title, " ") || strings.HasSuffix(title, " ") {
		return false
	}
	for _, r := range title {
		if IsSpecial(r) {
			return false
		}
		if r != ' ' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ValidateDescription requires 20-2000 characters and more characters than title.
func ValidateDescription(desc, title string) bool {
	n := utf8.RuneCountInString(desc)
	return n >= MinDescriptionLength && n <= MaxDescriptionLength && n > utf8.RuneCountInString(title)
}

// ValidatePrice checks the allowed range. When previous is non-nil the price
// may not decrease.
func ValidatePrice(price int, previous *int) bool {
	if price < MinPrice || price > MaxPrice {
		return false
	}
	return previous == nil || price >= *previous
}

// ValidateDate accepts YYYY-MM-DD between 2021-01-02 and 2025-01-01 inclusive.
// Days are only checked against 1-31, whatever the month.
func ValidateDate(date string) bool {
	if len(date) != 10 || date[4] != '-' || date[7] != '-' {
		return false
	}
	year, ok := digits(date[0:4])
	if !ok {
		return false
	}
	month, ok := digits(date[5:7])
	if !ok {
		return false
	}
	day, ok := digits(date[8:10])
	if !ok {
		return false
	}

	if year < 2021 || year > 2025 || month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	if year == 2021 && month == 1 && day < 2 {
		return false
	}
	if year == 2025 && (month > 1 || day > 1) {
		return false
	}
	return true
}

// ValidatePostalCode accepts Canadian codes such as "K7L 2H9" or "K7L2H9".
func ValidatePostalCode(code string) bool {
	return postalCodePattern.MatchString(code)
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func digits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}
