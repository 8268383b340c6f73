package oauth

// RedactedSecret holds a client secret or token inside a FlowSession so
// that printing the session never leaks it.
//
//	s := oauth.NewRedactedSecret("k7Hq...")
//	fmt.Println(s) // [REDACTED]
//	s.Value()      // "k7Hq..."
type RedactedSecret struct {
	value string
}

// NewRedactedSecret wraps value.
func NewRedactedSecret(value string) RedactedSecret {
	return RedactedSecret{value: value}
}

// Value returns the wrapped value. Only pass it to the token endpoint or the
// credential store.
func (s RedactedSecret) Value() string {
	return s.value
}

// String implements fmt.Stringer.
func (s RedactedSecret) String() string {
	if s.value == "" {
		return ""
	}
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v.
func (s RedactedSecret) GoString() string {
	return "oauth.RedactedSecret{[REDACTED]}"
}

// MarshalJSON keeps the value out of JSON output.
func (s RedactedSecret) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}
