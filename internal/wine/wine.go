// Package wine defines the collection's record types and the declarative
// field schema shared by storage, partial updates and label analysis.
package wine

// Origin records where a wine entered the collection.
type Origin string

const (
	// OriginCatalog marks wines loaded from the canonical catalog.
	OriginCatalog Origin = "catalog"
	// OriginUser marks wines added by the collector.
	OriginUser Origin = "user"
)

// Wine is one catalog or user-added wine. Every attribute is a string so that
// partial or unknown values from manual entry and label analysis survive
// unchanged; an empty string means the value is absent.
type Wine struct {
	ID     string `json:"id"`
	Origin Origin `json:"origin,omitempty"`

	Producer        string `json:"producer"`
	Name            string `json:"name"`
	Vintage         string `json:"vintage"`
	Region          string `json:"region"`
	Appellation     string `json:"appellation"`
	Country         string `json:"country"`
	GrapeVarieties  string `json:"grapeVarieties"`
	BlendPercentage string `json:"blendPercentage"`
	Alcohol         string `json:"alcohol"`
	BottleSize      string `json:"bottleSize"`
	WineType        string `json:"wineType"`
	Color           string `json:"color"`

	Body           string `json:"body"`
	TanninLevel    string `json:"tanninLevel"`
	AcidityLevel   string `json:"acidityLevel"`
	OakTreatment   string `json:"oakTreatment"`
	AgingPotential string `json:"agingPotential"`

	DrinkWindowStart string `json:"drinkWindowStart"`
	DrinkWindowEnd   string `json:"drinkWindowEnd"`
	CurrentStatus    string `json:"currentStatus"`
	PeakDrinking     string `json:"peakDrinking"`

	PurchaseDate     string `json:"purchaseDate"`
	PurchasePrice    string `json:"purchasePrice"`
	PurchaseLocation string `json:"purchaseLocation"`
	Quantity         string `json:"quantity"`

	// Deprecated single-bottle consumption fields, superseded by
	// ConsumptionEvent history. Kept so older records round-trip.
	Consumed         string `json:"consumed"`
	DateConsumed     string `json:"dateConsumed"`
	ConsumptionNotes string `json:"consumptionNotes"`

	StorageLocation   string `json:"storageLocation"`
	CellarTemperature string `json:"cellarTemperature"`

	TastingNotes string `json:"tastingNotes"`
	AromaNotes   string `json:"aromaNotes"`
	FoodPairings string `json:"foodPairings"`
	Rating       string `json:"rating"`

	// FrontImage and BackImage hold a remote URL, or transiently an inline
	// base64 data URL waiting to be uploaded.
	FrontImage string `json:"frontImage"`
	BackImage  string `json:"backImage"`

	Notes string `json:"notes"`
}

// DefaultQuantity is the bottle count assumed when none is recorded.
const DefaultQuantity = "1"

// Normalize fills defaults and resolves the origin for records that predate
// the explicit origin tag.
func (w *Wine) Normalize() {
	if w.Quantity == "" {
		w.Quantity = DefaultQuantity
	}
	if w.Origin == "" {
		w.Origin = OriginOf(w.ID)
	}
}

// QuantityOrDefault returns the numeric bottle count, 1 when the quantity is
// missing, zero or unparseable.
func (w Wine) QuantityOrDefault() int {
	return IntOr(w.Quantity, 1)
}

// IsUserAdded reports whether the collector added this wine.
func (w Wine) IsUserAdded() bool {
	if w.Origin != "" {
		return w.Origin == OriginUser
	}
	return OriginOf(w.ID) == OriginUser
}

// ConsumptionEvent records one bottle being drunk.
type ConsumptionEvent struct {
	ID    string `json:"id"`
	Date  string `json:"date"`
	Notes string `json:"notes"`
}
