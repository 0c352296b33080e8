package wine

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownField is returned when a patch or value map names an attribute
// outside the schema.
var ErrUnknownField = errors.New("unknown wine field")

// Field describes one Wine attribute: its JSON key, its storage column, and
// how to reach it on a record.
type Field struct {
	JSON   string
	Column string
	ref    func(*Wine) *string
}

// Get returns the field's value on w.
func (f Field) Get(w *Wine) string { return *f.ref(w) }

// Set assigns the field's value on w.
func (f Field) Set(w *Wine, v string) { *f.ref(w) = v }

// Fields is the declarative schema of every mutable attribute, in storage
// column order. Identity (ID, Origin) is deliberately absent.
var Fields = []Field{
	{"producer", "producer", func(w *Wine) *string { return &w.Producer }},
	{"name", "name", func(w *Wine) *string { return &w.Name }},
	{"vintage", "vintage", func(w *Wine) *string { return &w.Vintage }},
	{"region", "region", func(w *Wine) *string { return &w.Region }},
	{"appellation", "appellation", func(w *Wine) *string { return &w.Appellation }},
	{"country", "country", func(w *Wine) *string { return &w.Country }},
	{"grapeVarieties", "grape_varieties", func(w *Wine) *string { return &w.GrapeVarieties }},
	{"blendPercentage", "blend_percentage", func(w *Wine) *string { return &w.BlendPercentage }},
	{"alcohol", "alcohol", func(w *Wine) *string { return &w.Alcohol }},
	{"bottleSize", "bottle_size", func(w *Wine) *string { return &w.BottleSize }},
	{"wineType", "wine_type", func(w *Wine) *string { return &w.WineType }},
	{"color", "color", func(w *Wine) *string { return &w.Color }},
	{"body", "body", func(w *Wine) *string { return &w.Body }},
	{"tanninLevel", "tannin_level", func(w *Wine) *string { return &w.TanninLevel }},
	{"acidityLevel", "acidity_level", func(w *Wine) *string { return &w.AcidityLevel }},
	{"oakTreatment", "oak_treatment", func(w *Wine) *string { return &w.OakTreatment }},
	{"agingPotential", "aging_potential", func(w *Wine) *string { return &w.AgingPotential }},
	{"drinkWindowStart", "drink_window_start", func(w *Wine) *string { return &w.DrinkWindowStart }},
	{"drinkWindowEnd", "drink_window_end", func(w *Wine) *string { return &w.DrinkWindowEnd }},
	{"currentStatus", "current_status", func(w *Wine) *string { return &w.CurrentStatus }},
	{"peakDrinking", "peak_drinking", func(w *Wine) *string { return &w.PeakDrinking }},
	{"purchaseDate", "purchase_date", func(w *Wine) *string { return &w.PurchaseDate }},
	{"purchasePrice", "purchase_price", func(w *Wine) *string { return &w.PurchasePrice }},
	{"purchaseLocation", "purchase_location", func(w *Wine) *string { return &w.PurchaseLocation }},
	{"quantity", "quantity", func(w *Wine) *string { return &w.Quantity }},
	{"consumed", "consumed", func(w *Wine) *string { return &w.Consumed }},
	{"dateConsumed", "date_consumed", func(w *Wine) *string { return &w.DateConsumed }},
	{"consumptionNotes", "consumption_notes", func(w *Wine) *string { return &w.ConsumptionNotes }},
	{"storageLocation", "storage_location", func(w *Wine) *string { return &w.StorageLocation }},
	{"cellarTemperature", "cellar_temperature", func(w *Wine) *string { return &w.CellarTemperature }},
	{"tastingNotes", "tasting_notes", func(w *Wine) *string { return &w.TastingNotes }},
	{"aromaNotes", "aroma_notes", func(w *Wine) *string { return &w.AromaNotes }},
	{"foodPairings", "food_pairings", func(w *Wine) *string { return &w.FoodPairings }},
	{"rating", "rating", func(w *Wine) *string { return &w.Rating }},
	{"frontImage", "front_image", func(w *Wine) *string { return &w.FrontImage }},
	{"backImage", "back_image", func(w *Wine) *string { return &w.BackImage }},
	{"notes", "notes", func(w *Wine) *string { return &w.Notes }},
}

var fieldsByJSON = func() map[string]Field {
	m := make(map[string]Field, len(Fields))
	for _, f := range Fields {
		m[f.JSON] = f
	}
	return m
}()

// FieldByJSON looks up a schema field by its JSON key.
func FieldByJSON(key string) (Field, bool) {
	f, ok := fieldsByJSON[key]
	return f, ok
}

// Patch is a partial update keyed by JSON field name. An empty value clears
// the attribute.
type Patch map[string]string

// Keys returns the patched JSON keys in schema order.
func (p Patch) Keys() []string {
	keys := make([]string, 0, len(p))
	for _, f := range Fields {
		if _, ok := p[f.JSON]; ok {
			keys = append(keys, f.JSON)
		}
	}
	return keys
}

// Apply copies the patched values onto w.
func (w *Wine) Apply(p Patch) {
	for key, v := range p {
		if f, ok := fieldsByJSON[key]; ok {
			f.Set(w, v)
		}
	}
}

// PatchFromValues builds a Patch from decoded JSON. Scalars of any type are
// rendered as strings and null clears the field. The keys "id" and "origin"
// are ignored so that clients may echo a full record back.
func PatchFromValues(values map[string]any) (Patch, error) {
	p := make(Patch, len(values))
	var unknown []string
	for key, v := range values {
		if key == "id" || key == "origin" {
			continue
		}
		if _, ok := fieldsByJSON[key]; !ok {
			unknown = append(unknown, key)
			continue
		}
		p[key] = Stringify(v)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, strings.Join(unknown, ", "))
	}
	return p, nil
}

// FromValues builds a Wine from decoded JSON, keeping only schema fields.
// Unlike PatchFromValues it tolerates unknown keys, since model output is
// free to add commentary fields.
func FromValues(values map[string]any) Wine {
	var w Wine
	for key, v := range values {
		if f, ok := fieldsByJSON[key]; ok {
			f.Set(&w, strings.TrimSpace(Stringify(v)))
		}
	}
	return w
}

// FromRecord builds a stored Wine from an exported catalog record, keeping
// its id.
func FromRecord(values map[string]any) Wine {
	w := FromValues(values)
	w.ID = Stringify(values["id"])
	return w
}

// Stringify renders a decoded JSON scalar as a field value.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := Stringify(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}
