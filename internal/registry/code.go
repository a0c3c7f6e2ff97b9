package registry

import (
	"fmt"
	"math/rand"
)

// codePrefix is the fixed prefix of every client access code.
const codePrefix = "CLI"

// GenerateClientCode produces a human-shareable client access code of the
// form "CLI" followed by a 4-digit number in [1000, 9999]. It performs no
// collision check: uniqueness is enforced at client creation, which fails
// with ErrDuplicateCode on a collision rather than regenerating.
func GenerateClientCode() string {
	return fmt.Sprintf("%s%d", codePrefix, 1000+rand.Intn(9000))
}
