package password

// MinLength is the shortest password accepted at registration.
const MinLength = 6

// MaxLength is the longest password bcrypt can hash. Longer passwords are
// rejected at registration rather than silently truncated.
const MaxLength = 72

// IsAllowed reports whether a password is strong enough to register with.
// It must be at least MinLength bytes long and contain a lowercase letter,
// an uppercase letter, a digit and a character outside [A-Za-z0-9].
func IsAllowed(password string) bool {
	if len(password) < MinLength {
		return false
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}
