package product

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const idSuffixLen = 9

// NewID returns a product identifier of the form
// product_<unix millis>_<9 base36 chars>. The suffix comes from a random v4
// UUID, so concurrent invocations need no coordination.
func NewID(now time.Time) string {
	u := uuid.New()
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(u[8:]), 36)
	if len(suffix) < idSuffixLen {
		suffix = strings.Repeat("0", idSuffixLen-len(suffix)) + suffix
	}
	// Low-order digits: the high bits of this half carry the UUID variant.
	return "product_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix[len(suffix)-idSuffixLen:]
}
