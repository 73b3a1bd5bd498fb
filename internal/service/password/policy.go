package password

import (
	"strings"
	"unicode"
)

const (
	defaultMinimumLength = 12

	// Hard upper bound, a DoS guard for the KDF. Not configurable.
	maxPasswordLength = 128
)

const specialCharacters = `!@#$%^&*()-_=+[]{};:'",.<>/?\|~` + "`"

// Strength labels for scores 0..4
const (
	LabelVeryWeak   = "Very Weak"
	LabelWeak       = "Weak"
	LabelFair       = "Fair"
	LabelStrong     = "Strong"
	LabelVeryStrong = "Very Strong"
)

// Substrings that show up in weak passwords. Matching any of them adds a
// suggestion but never fails validation.
var commonPatterns = []string{
	"0123", "1234", "2345", "3456", "4567", "5678", "6789", "7890",
	"abcd", "bcde", "cdef", "defg",
	"qwerty", "asdf", "zxcv", "qwertz", "azerty",
	"password", "passwort", "letmein", "welcome", "iloveyou", "admin", "login", "family",
}

// PolicyConfig enumerates the toggles of the strength policy.
// Zero value of MinimumLength means the default of 12.
type PolicyConfig struct {
	MinimumLength           int
	RequireUppercase        bool
	RequireLowercase        bool
	RequireDigit            bool
	RequireSpecialCharacter bool
}

// DefaultPolicyConfig requires 12+ characters from all four classes
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		MinimumLength:           defaultMinimumLength,
		RequireUppercase:        true,
		RequireLowercase:        true,
		RequireDigit:            true,
		RequireSpecialCharacter: true,
	}
}

// Policy evaluates password strength against configured rules
type Policy struct {
	cfg PolicyConfig
}

func NewPolicy(cfg PolicyConfig) *Policy {
	if cfg.MinimumLength <= 0 {
		cfg.MinimumLength = defaultMinimumLength
	}

	return &Policy{cfg: cfg}
}

// Strength is the result of a policy evaluation
type Strength struct {
	IsValid     bool
	Errors      []string
	Suggestions []string

	// Score 0..4, mapped to Label. Only meaningful when IsValid
	Score int
	Label string
}

type charClasses struct {
	upper, lower, digit, special bool
}

func classify(password string) charClasses {
	var c charClasses
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			c.upper = true
		case unicode.IsLower(r):
			c.lower = true
		case unicode.IsDigit(r):
			c.digit = true
		case strings.ContainsRune(specialCharacters, r):
			c.special = true
		}
	}
	return c
}

func (c charClasses) count() int {
	n := 0
	for _, present := range []bool{c.upper, c.lower, c.digit, c.special} {
		if present {
			n++
		}
	}
	return n
}

// ValidateStrength checks the password against every hard requirement and,
// if all pass, computes a 0..4 score. Failing requirements accumulate:
// the caller gets every violation at once, not just the first.
func (p *Policy) ValidateStrength(password string) Strength {
	var s Strength

	if password == "" {
		s.Errors = append(s.Errors, "password must not be empty")
		s.Label = LabelVeryWeak
		return s
	}

	length := len([]rune(password))
	classes := classify(password)

	if length < p.cfg.MinimumLength {
		s.Errors = append(s.Errors, "password is too short")
		s.Suggestions = append(s.Suggestions, "use a longer password")
	}
	if length > maxPasswordLength {
		s.Errors = append(s.Errors, "password is too long")
	}
	caseSuggested := false
	if p.cfg.RequireUppercase && !classes.upper {
		s.Errors = append(s.Errors, "password must contain an uppercase letter")
		s.Suggestions = append(s.Suggestions, "mix upper and lower case")
		caseSuggested = true
	}
	if p.cfg.RequireLowercase && !classes.lower {
		s.Errors = append(s.Errors, "password must contain a lowercase letter")
		if !caseSuggested {
			s.Suggestions = append(s.Suggestions, "mix upper and lower case")
		}
	}
	if p.cfg.RequireDigit && !classes.digit {
		s.Errors = append(s.Errors, "password must contain a digit")
		s.Suggestions = append(s.Suggestions, "add a digit")
	}
	if p.cfg.RequireSpecialCharacter && !classes.special {
		s.Errors = append(s.Errors, "password must contain a special character")
		s.Suggestions = append(s.Suggestions, "add a special character")
	}

	if containsCommonPattern(password) {
		s.Suggestions = append(s.Suggestions, "avoid common patterns and dictionary words")
	}

	if len(s.Errors) > 0 {
		s.Label = LabelVeryWeak
		return s
	}

	s.IsValid = true
	s.Score = score(length, classes)
	s.Label = label(s.Score)
	return s
}

func score(length int, classes charClasses) int {
	n := 0
	if length >= 12 {
		n++
	}
	if length >= 16 {
		n++
	}
	if classes.count() >= 3 {
		n++
	}
	if classes.count() == 4 {
		n++
	}
	if n > 4 {
		n = 4
	}
	return n
}

func label(score int) string {
	switch score {
	case 0:
		return LabelVeryWeak
	case 1:
		return LabelWeak
	case 2:
		return LabelFair
	case 3:
		return LabelStrong
	default:
		return LabelVeryStrong
	}
}

func containsCommonPattern(password string) bool {
	lowered := strings.ToLower(password)
	for _, pattern := range commonPatterns {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}
