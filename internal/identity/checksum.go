package identity

// LuhnValid reports whether digits is a non-empty ASCII digit string with a
// valid Luhn (mod 10) check digit. South African ID numbers end in one.
func LuhnValid(digits string) bool {
	if !isASCIIDigits(digits) {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
