package management

import (
	"unicode"

	"github.com/go-playground/validator/v10"
)

// minCharacterClasses is the Active Directory default complexity rule: a
// password must draw from at least three of the four character classes.
const minCharacterClasses = 3

// validateComplexity implements the "adcomplexity" validation tag.
func validateComplexity(fl validator.FieldLevel) bool {
	var hasUpper, hasLower, hasDigit, hasSpecial bool

	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	classes := 0
	for _, has := range []bool{hasUpper, hasLower, hasDigit, hasSpecial} {
		if has {
			classes++
		}
	}

	return classes >= minCharacterClasses
}
