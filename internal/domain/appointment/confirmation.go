package appointment

import (
	"fmt"
	"math/rand"
	"time"
)

// NewConfirmationCode renders APT-{yyyyMMddHHmmss}-{NNNN}. Uniqueness is
// enforced by the storage layer; callers retry on ErrConfirmationCodeTaken.
func NewConfirmationCode(now time.Time) string {
	return fmt.Sprintf("APT-%s-%04d", now.Format("20060102150405"), 1000+rand.Intn(9000))
}
