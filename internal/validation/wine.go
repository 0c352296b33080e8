package validation

import (
	"fmt"
	"unicode/utf8"

	"github.com/hyperengineering/cellar/internal/images"
	"github.com/hyperengineering/cellar/internal/wine"
)

// Field limits, in runes.
const (
	MaxFieldLength       = 2000
	MaxNoteLength        = 10000
	MaxChatMessageLength = 4000
	MaxImportBatch       = 5000
)

// MaxImageLength bounds an inline label image, in bytes of data URL.
const MaxImageLength = 15 << 20

// imageFields may carry a data URL, so they are bounded by MaxImageLength.
var imageFields = map[string]bool{"frontImage": true, "backImage": true}

func fieldLimit(key string) int {
	if imageFields[key] {
		return MaxImageLength
	}
	return MaxFieldLength
}

// ValidateNewWine validates a wine being added by the collector. Either a
// producer or a name is required.
func ValidateNewWine(w wine.Wine) []ValidationError {
	var c Collector
	validateWineFields(&c, "", &w)
	if c.HasErrors() {
		return c.Errors()
	}
	if blank(w.Producer) && blank(w.Name) {
		c.Fail("producer", "producer or name is required")
	}
	return c.Errors()
}

// ValidateImport validates a bulk import batch. Wines are only checked for
// well-formed text; catalog records may legitimately lack a producer.
func ValidateImport(wines []wine.Wine) []ValidationError {
	var c Collector
	if len(wines) == 0 {
		c.Fail("wines", "must contain at least one wine")
		return c.Errors()
	}
	if len(wines) > MaxImportBatch {
		c.Fail("wines", "exceeds maximum batch size of %d", MaxImportBatch)
		return c.Errors()
	}
	for i := range wines {
		validateWineFields(&c, fmt.Sprintf("wines[%d].", i), &wines[i])
	}
	return c.Errors()
}

// ValidatePatch validates the values of a partial update.
func ValidatePatch(p wine.Patch) []ValidationError {
	var c Collector
	for _, key := range p.Keys() {
		c.Text(key, p[key], fieldLimit(key))
	}
	return c.Errors()
}

func validateWineFields(c *Collector, prefix string, w *wine.Wine) {
	for _, f := range wine.Fields {
		c.Text(prefix+f.JSON, f.Get(w), fieldLimit(f.JSON))
	}
}

// ValidateConsumption validates a consumption event. The date is optional
// and defaults to today.
func ValidateConsumption(date, notes string) []ValidationError {
	var c Collector
	if date != "" {
		c.Date("date", date)
	}
	c.Text("notes", notes, MaxNoteLength)
	return c.Errors()
}

// ValidateNote validates a private note. An empty note deletes it.
func ValidateNote(note string) []ValidationError {
	var c Collector
	c.Text("note", note, MaxNoteLength)
	return c.Errors()
}

// ValidatePurchaseDate validates a purchase-date override. Catalog purchase
// dates are free text, so only the text checks apply.
func ValidatePurchaseDate(date string) []ValidationError {
	var c Collector
	c.Text("purchaseDate", date, 64)
	return c.Errors()
}

// ValidateChatMessage validates a question for the assistant.
func ValidateChatMessage(message string) []ValidationError {
	var c Collector
	if c.Required("message", message) {
		c.Text("message", message, MaxChatMessageLength)
	}
	return c.Errors()
}

// ValidateLabelImage validates a label photograph sent for analysis.
func ValidateLabelImage(image string) []ValidationError {
	var c Collector
	switch {
	case !c.Required("image", image):
	case !images.IsDataURL(image):
		c.Fail("image", "must be a base64 data URL")
	case utf8.RuneCountInString(image) > MaxImageLength:
		c.Fail("image", "exceeds maximum length of %d characters", MaxImageLength)
	}
	return c.Errors()
}
