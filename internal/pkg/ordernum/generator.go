package ordernum

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generator produces unique, externally presentable order numbers.
type Generator interface {
	Next(t time.Time) string
}

// DatePrefixed generates numbers shaped ORD-YYYYMMDD-XXXXXXXX. The suffix is
// random; uniqueness is additionally guarded by the unique index on
// orders.number.
type DatePrefixed struct{}

// New returns the default generator.
func New() Generator {
	return DatePrefixed{}
}

// Next returns the next order number for the given instant.
func (DatePrefixed) Next(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", t.Format("20060102"), suffix)
}
