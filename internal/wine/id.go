package wine

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// UserIDPrefix starts every generated id of a user-added wine. Catalog ids are
// numeric strings, so the two namespaces never collide.
const UserIDPrefix = "user-"

// NewUserID returns a fresh id of the form user-<unix-millis>-<random>.
func NewUserID(now time.Time) string {
	return fmt.Sprintf("%s%d-%s", UserIDPrefix, now.UnixMilli(), randomSuffix())
}

// NewConsumptionID returns a fresh id for a consumption event.
func NewConsumptionID() string {
	return ulid.Make().String()
}

// OriginOf infers provenance from an id. Only legacy data without an explicit
// origin tag should rely on it.
func OriginOf(id string) Origin {
	if strings.HasPrefix(id, UserIDPrefix) {
		return OriginUser
	}
	return OriginCatalog
}

// randomSuffix is the entropy half of a ULID, lowercased.
func randomSuffix() string {
	return strings.ToLower(ulid.Make().String()[10:])
}
