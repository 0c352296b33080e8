package wine

// Status is the drink-window state of a wine relative to the current year.
type Status string

const (
	StatusTooYoung     Status = "Too Young"
	StatusReadyToDrink Status = "Ready to Drink"
	StatusAtPeak       Status = "At Peak"
	StatusPastPrime    Status = "Past Prime"
	StatusUnknown      Status = "Unknown"
)

// FilterStatuses is the fixed status facet offered to the collector.
var FilterStatuses = []string{
	string(StatusReadyToDrink),
	string(StatusAtPeak),
	string(StatusTooYoung),
	string(StatusPastPrime),
}

// Filters holds the nine optional attribute criteria. An empty value places
// no constraint on that attribute.
type Filters struct {
	Country           string `json:"country"`
	Region            string `json:"region"`
	WineType          string `json:"wineType"`
	Vintage           string `json:"vintage"`
	Body              string `json:"body"`
	TanninLevel       string `json:"tanninLevel"`
	AcidityLevel      string `json:"acidityLevel"`
	DrinkWindowStatus string `json:"drinkWindowStatus"`
	GrapeVariety      string `json:"grapeVariety"`
}

// IsEmpty reports whether no criterion is set.
func (f Filters) IsEmpty() bool {
	return f == Filters{}
}

// SortOrder names one of the supported result orderings.
type SortOrder string

const (
	SortDrinkSoon      SortOrder = "drink-soon"
	SortStatusPriority SortOrder = "status-priority"
	SortProducerAZ     SortOrder = "producer-az"
	SortWineNameAZ     SortOrder = "wine-name-az"
	SortVintageNewest  SortOrder = "vintage-newest"
	SortVintageOldest  SortOrder = "vintage-oldest"
	SortRegion         SortOrder = "region"
	SortRating         SortOrder = "rating"
)

// DefaultSortOrder is used when no valid order is requested.
const DefaultSortOrder = SortDrinkSoon

// SortOrders lists every supported ordering.
var SortOrders = []SortOrder{
	SortDrinkSoon,
	SortStatusPriority,
	SortProducerAZ,
	SortWineNameAZ,
	SortVintageNewest,
	SortVintageOldest,
	SortRegion,
	SortRating,
}

// ParseSortOrder maps a name to a SortOrder, falling back to the default.
func ParseSortOrder(s string) SortOrder {
	for _, o := range SortOrders {
		if string(o) == s {
			return o
		}
	}
	return DefaultSortOrder
}

// FacetSet lists the distinct selectable values for each filter.
type FacetSet struct {
	Countries           []string `json:"countries"`
	Regions             []string `json:"regions"`
	WineTypes           []string `json:"wineTypes"`
	Vintages            []string `json:"vintages"`
	Bodies              []string `json:"bodies"`
	TanninLevels        []string `json:"tanninLevels"`
	AcidityLevels       []string `json:"acidityLevels"`
	DrinkWindowStatuses []string `json:"drinkWindowStatuses"`
	GrapeVarieties      []string `json:"grapeVarieties"`
}
