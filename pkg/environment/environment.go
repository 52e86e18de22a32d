package environment

import (
	"errors"
	"fmt"
	"strings"
)

// Environment represents application environment.
type Environment string

const (
	// Test is used by automated test runs against sandbox accounts.
	Test Environment = "test"
	// Development for development environment.
	Development Environment = "development"
	// Staging for staging environment.
	Staging Environment = "staging"
	// Production for production environment.
	Production Environment = "production"
)

// ErrUnknownEnvironment is returned by Parse for unrecognised names.
var ErrUnknownEnvironment = errors.New("unknown environment")

// Parse normalises an environment name, accepting common aliases.
func Parse(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "test", "testing":
		return Test, nil
	case "development", "dev", "":
		return Development, nil
	case "staging", "stage":
		return Staging, nil
	case "production", "prod":
		return Production, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEnvironment, s)
	}
}

func (e Environment) String() string {
	return string(e)
}

// IsProduction reports whether destructive operations need explicit confirmation.
func (e Environment) IsProduction() bool {
	return e == Production
}
