package newsletter

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrInvalidRole  = errors.New("invalid role")
	ErrInvalidTech  = errors.New("invalid tech stack items")
)

// Signup is a validated subscription request.
type Signup struct {
	Email     string   `json:"email"`
	Role      string   `json:"role"`
	TechStack []string `json:"tech_stack"`
}

// Validate checks a subscription request and returns it lower-cased. Only a
// bare address is accepted as email.
func Validate(email, role string, tech []string) (Signup, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return Signup{}, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	role = strings.ToLower(strings.TrimSpace(role))
	if !contains(Roles(), role) {
		return Signup{}, fmt.Errorf("%w. Must be one of: %s", ErrInvalidRole, strings.Join(Roles(), ", "))
	}

	out := make([]string, 0, len(tech))
	var invalid []string
	for _, t := range tech {
		lt := strings.ToLower(strings.TrimSpace(t))
		if !contains(techStacks, lt) {
			invalid = append(invalid, t)
			continue
		}
		if !contains(out, lt) {
			out = append(out, lt)
		}
	}
	if len(invalid) > 0 {
		return Signup{}, fmt.Errorf("%w: %s", ErrInvalidTech, strings.Join(invalid, ", "))
	}

	return Signup{Email: strings.ToLower(addr.Address), Role: role, TechStack: out}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
