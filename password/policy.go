package password

import (
	"strings"
	"unicode"
)

// Strength buckets returned by [Policy.Describe].
type Strength string

const (
	// VeryWeak is an informational strength bucket (score < 20).
	VeryWeak Strength = "very_weak"
	// Weak is an informational strength bucket (score < 40).
	Weak Strength = "weak"
	// Medium is an informational strength bucket (score < 60).
	Medium Strength = "medium"
	// Strong is an informational strength bucket (score < 80).
	Strong Strength = "strong"
	// VeryStrong is an informational strength bucket (score >= 80).
	VeryStrong Strength = "very_strong"
)

// Violation identifies a single failed policy rule.
type Violation string

const (
	// ViolationLength means the password is outside the allowed length range.
	ViolationLength Violation = "length"
	// ViolationCharClasses means fewer than three character classes are present.
	ViolationCharClasses Violation = "character_classes"
	// ViolationCommon means the password matches the common-password list.
	ViolationCommon Violation = "common_password"
	// ViolationSequential means the password contains a 3+ sequential run.
	ViolationSequential Violation = "sequential_run"
	// ViolationRepeat means the password contains a 3+ repeated character run.
	ViolationRepeat Violation = "repeated_run"
)

// PolicyError carries every rule the candidate password failed.
type PolicyError struct {
	Violations []Violation
}

func (e *PolicyError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = string(v)
	}
	return "password policy violation: " + strings.Join(parts, ", ")
}

// Policy is the stateless strength gate. Zero value is not usable; construct
// with [NewPolicy].
type Policy struct {
	minLength int
	maxLength int
}

// NewPolicy returns a Policy with the standard 8..128 length bounds.
func NewPolicy() *Policy {
	return &Policy{minLength: 8, maxLength: 128}
}

// commonPasswords is matched case-insensitively and exactly. The list is
// deliberately short: it exists to reject the passwords that dominate
// credential-stuffing dictionaries, not to replace a breach corpus.
var commonPasswords = []string{
	"password", "password1", "password123", "passw0rd", "12345678",
	"123456789", "1234567890", "qwerty123", "qwertyuiop", "iloveyou",
	"sunshine", "princess", "football", "baseball", "superman",
	"trustno1", "letmein1", "welcome1", "admin123", "dragon123",
	"monkey123", "master123", "shadow123", "abc12345", "password!",
	"qwerty12", "11111111", "00000000", "aa123456", "666666666",
}

// sequences feed the sequential-run check; each is scanned forward and
// reversed against every 3-character window of the lowercased password.
var sequences = []string{
	"abcdefghijklmnopqrstuvwxyz",
	"0123456789",
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
}

// Validate applies the enforced strength gate. It returns nil when the
// password passes, or a *PolicyError listing every failed rule.
func (p *Policy) Validate(password string) error {
	var violations []Violation

	if len(password) < p.minLength || len(password) > p.maxLength {
		violations = append(violations, ViolationLength)
	}
	if classCount(password) < 3 {
		violations = append(violations, ViolationCharClasses)
	}
	if isCommon(password) {
		violations = append(violations, ViolationCommon)
	}
	if hasSequentialRun(password) {
		violations = append(violations, ViolationSequential)
	}
	if hasRepeatedRun(password) {
		violations = append(violations, ViolationRepeat)
	}

	if len(violations) > 0 {
		return &PolicyError{Violations: violations}
	}
	return nil
}

// Score computes the informational 0..100 strength score. It never gates
// anything: Validate is the enforced check.
func (p *Policy) Score(password string) int {
	score := 0

	// Length bonus, 2 points per character up to 30.
	lengthBonus := len(password) * 2
	if lengthBonus > 30 {
		lengthBonus = 30
	}
	score += lengthBonus

	// Character class bonus, 10 points per class up to 40.
	classes := classCount(password)
	score += classes * 10

	// Unique character bonus, 2 points per distinct character up to 20.
	uniqueBonus := distinctCount(password) * 2
	if uniqueBonus > 20 {
		uniqueBonus = 20
	}
	score += uniqueBonus

	// Diversity bonus for covering most of the class space.
	switch classes {
	case 4:
		score += 10
	case 3:
		score += 5
	}

	if hasSequentialRun(password) {
		score -= 10
	}
	if hasRepeatedRun(password) {
		score -= 10
	}
	if isCommon(password) {
		score -= 20
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Describe maps a score to its strength bucket using the fixed 20/40/60/80
// thresholds.
func (p *Policy) Describe(score int) Strength {
	switch {
	case score < 20:
		return VeryWeak
	case score < 40:
		return Weak
	case score < 60:
		return Medium
	case score < 80:
		return Strong
	default:
		return VeryStrong
	}
}

func classCount(password string) int {
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}

	count := 0
	for _, present := range []bool{upper, lower, digit, symbol} {
		if present {
			count++
		}
	}
	return count
}

func distinctCount(password string) int {
	seen := make(map[rune]struct{}, len(password))
	for _, r := range password {
		seen[r] = struct{}{}
	}
	return len(seen)
}

func isCommon(password string) bool {
	lowered := strings.ToLower(password)
	for _, common := range commonPasswords {
		if lowered == common {
			return true
		}
	}
	return false
}

func hasSequentialRun(password string) bool {
	lowered := strings.ToLower(password)
	if len(lowered) < 3 {
		return false
	}

	for i := 0; i+3 <= len(lowered); i++ {
		window := lowered[i : i+3]
		for _, seq := range sequences {
			if strings.Contains(seq, window) || strings.Contains(seq, reverse(window)) {
				return true
			}
		}
	}
	return false
}

func hasRepeatedRun(password string) bool {
	run := 1
	var prev rune
	for i, r := range password {
		if i > 0 && r == prev {
			run++
			if run >= 3 {
				return true
			}
		} else {
			run = 1
		}
		prev = r
	}
	return false
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
