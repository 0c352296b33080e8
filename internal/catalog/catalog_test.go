package catalog

import (
	"errors"
	"net/url"
	"reflect"
	"slices"
	"testing"

	"github.com/hyperengineering/cellar/internal/wine"
)

func ids(wines []wine.Wine) []string {
	out := make([]string, len(wines))
	for i := range wines {
		out[i] = wines[i].ID
	}
	return out
}

func testCollection() []wine.Wine {
	return []wine.Wine{
		{ID: "1", Producer: "Giacomo Conterno", Name: "Barolo Cascina Francia", Vintage: "2016", Country: "Italy", Region: "Piemonte",
			WineType: "Red", Body: "Full", TanninLevel: "High", AcidityLevel: "High", GrapeVarieties: "Nebbiolo",
			DrinkWindowStart: "2026", DrinkWindowEnd: "2050", Rating: "97", Quantity: "2", TastingNotes: "Tar and roses"},
		{ID: "2", Producer: "Ridge", Name: "Monte Bello", Vintage: "2012", Country: "USA", Region: "Santa Cruz Mountains",
			WineType: "Red", Body: "Full", TanninLevel: "Medium", GrapeVarieties: "80% Cabernet Sauvignon, 20% Merlot",
			DrinkWindowStart: "2020", DrinkWindowEnd: "2035", PeakDrinking: "2024-2028", Rating: "95"},
		{ID: "3", Producer: "Domaine Leflaive", Name: "Puligny-Montrachet", Vintage: "2015", Country: "France", Region: "Burgundy",
			WineType: "White", Body: "Medium", AcidityLevel: "High", GrapeVarieties: "Chardonnay",
			DrinkWindowStart: "2018", DrinkWindowEnd: "2023", Notes: "Gift from Anna"},
		{ID: "4", Producer: "Bodegas Muga", Name: "Reserva", Country: "Spain", Region: "Rioja",
			WineType: "Red", Body: "Medium", GrapeVarieties: "Tempranillo; Garnacha and Graciano", Quantity: "6"},
	}
}

func TestDrinkWindowStatus(t *testing.T) {
	peak := wine.Wine{DrinkWindowStart: "2020", DrinkWindowEnd: "2030", PeakDrinking: "2024-2026"}

	tests := []struct {
		name string
		w    wine.Wine
		year int
		want wine.Status
	}{
		{"inside peak", peak, 2025, wine.StatusAtPeak},
		{"peak start inclusive", peak, 2024, wine.StatusAtPeak},
		{"after window", peak, 2032, wine.StatusPastPrime},
		{"before window", peak, 2019, wine.StatusTooYoung},
		{"inside window outside peak", peak, 2021, wine.StatusReadyToDrink},
		{"window end inclusive", peak, 2030, wine.StatusReadyToDrink},
		{"no window", wine.Wine{}, 2025, wine.StatusReadyToDrink},
		{"zero end is open", wine.Wine{DrinkWindowStart: "2020", DrinkWindowEnd: "0"}, 2100, wine.StatusReadyToDrink},
		{"peak with prose", wine.Wine{DrinkWindowStart: "2020", DrinkWindowEnd: "2030", PeakDrinking: "best 2022-2023"}, 2022, wine.StatusAtPeak},
		{"unparseable peak", wine.Wine{DrinkWindowStart: "2020", DrinkWindowEnd: "2030", PeakDrinking: "soon"}, 2022, wine.StatusReadyToDrink},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DrinkWindowStatus(&tt.w, tt.year)
			if got != tt.want {
				t.Errorf("DrinkWindowStatus() = %q, want %q", got, tt.want)
			}
			if again := DrinkWindowStatus(&tt.w, tt.year); again != got {
				t.Errorf("second call = %q, first = %q", again, got)
			}
		})
	}
}

func TestSearch_BlankQueryIsIdentity(t *testing.T) {
	wines := testCollection()
	for _, q := range []string{"", "   ", "\t"} {
		got := Search(wines, q)
		if !reflect.DeepEqual(got, wines) {
			t.Errorf("Search(%q) changed the collection", q)
		}
	}
}

func TestSearch_MatchesFieldsCaseInsensitively(t *testing.T) {
	wines := testCollection()

	tests := []struct {
		query string
		want  []string
	}{
		{"RIDGE", []string{"2"}},
		{"nebbiolo", []string{"1"}},
		{"roses", []string{"1"}},
		{"anna", []string{"3"}},
		{"burgundy", []string{"3"}},
		{"  merlot  ", []string{"2"}},
		{"red", []string{}},
		{"zinfandel", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := ids(Search(wines, tt.query))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestFilter_EmptyCriteriaIsIdentity(t *testing.T) {
	wines := testCollection()
	got := Filter(wines, wine.Filters{}, 2025)
	if !reflect.DeepEqual(got, wines) {
		t.Error("Filter with empty criteria changed the collection")
	}
}

func TestFilter(t *testing.T) {
	wines := testCollection()

	tests := []struct {
		name string
		f    wine.Filters
		want []string
	}{
		{"country", wine.Filters{Country: "Italy"}, []string{"1"}},
		{"type and body", wine.Filters{WineType: "Red", Body: "Medium"}, []string{"4"}},
		{"equality is exact", wine.Filters{Country: "italy"}, []string{}},
		{"grape substring", wine.Filters{GrapeVariety: "cabernet"}, []string{"2"}},
		{"grape from split list", wine.Filters{GrapeVariety: "Garnacha"}, []string{"4"}},
		{"status at peak", wine.Filters{DrinkWindowStatus: string(wine.StatusAtPeak)}, []string{"2"}},
		{"status past prime", wine.Filters{DrinkWindowStatus: string(wine.StatusPastPrime)}, []string{"3"}},
		{"status too young", wine.Filters{DrinkWindowStatus: string(wine.StatusTooYoung)}, []string{"1"}},
		{"conjunction", wine.Filters{WineType: "Red", AcidityLevel: "High"}, []string{"1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(wines, tt.f, 2025))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Filter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSort_PermutationAndNoMutation(t *testing.T) {
	wines := testCollection()
	before := ids(wines)

	for _, order := range wine.SortOrders {
		t.Run(string(order), func(t *testing.T) {
			got := Sort(wines, order, 2025)
			if len(got) != len(wines) {
				t.Fatalf("len = %d, want %d", len(got), len(wines))
			}
			sorted := ids(got)
			slices.Sort(sorted)
			want := slices.Clone(before)
			slices.Sort(want)
			if !slices.Equal(sorted, want) {
				t.Errorf("Sort changed the element set: %v", sorted)
			}
			if !slices.Equal(ids(wines), before) {
				t.Error("Sort mutated its input")
			}
		})
	}
}

func TestSort_Orders(t *testing.T) {
	wines := testCollection()

	tests := []struct {
		order wine.SortOrder
		want  []string
	}{
		// 3 is past prime; 2 ends 2035; 1 ends 2050; 4 has no end.
		{wine.SortDrinkSoon, []string{"3", "2", "1", "4"}},
		// 2 at peak; 4 ready; 1 too young; 3 past prime.
		{wine.SortStatusPriority, []string{"2", "4", "1", "3"}},
		{wine.SortProducerAZ, []string{"4", "3", "1", "2"}},
		{wine.SortWineNameAZ, []string{"1", "2", "3", "4"}},
		{wine.SortVintageNewest, []string{"1", "3", "2", "4"}},
		{wine.SortVintageOldest, []string{"2", "3", "1", "4"}},
		{wine.SortRegion, []string{"3", "1", "4", "2"}},
		{wine.SortRating, []string{"1", "2", "4", "3"}},
		{wine.SortOrder("unknown"), []string{"3", "2", "1", "4"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			got := ids(Sort(wines, tt.order, 2025))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Sort(%s) = %v, want %v", tt.order, got, tt.want)
			}
		})
	}
}

func TestSort_UnknownVintagesLastInBothDirections(t *testing.T) {
	wines := []wine.Wine{
		{ID: "nv", Producer: "A", Vintage: "NV"},
		{ID: "2010", Producer: "B", Vintage: "2010"},
		{ID: "blank", Producer: "C"},
		{ID: "2020", Producer: "D", Vintage: "2020"},
	}

	newest := ids(Sort(wines, wine.SortVintageNewest, 2025))
	if !slices.Equal(newest, []string{"2020", "2010", "nv", "blank"}) {
		t.Errorf("newest = %v", newest)
	}
	oldest := ids(Sort(wines, wine.SortVintageOldest, 2025))
	if !slices.Equal(oldest, []string{"2010", "2020", "nv", "blank"}) {
		t.Errorf("oldest = %v", oldest)
	}
}

func TestSort_TiesBreakByProducerThenName(t *testing.T) {
	wines := []wine.Wine{
		{ID: "c", Producer: "Beta", Name: "Zeta", Rating: "90"},
		{ID: "a", Producer: "Alpha", Name: "Omega", Rating: "90"},
		{ID: "b", Producer: "Beta", Name: "Alpha", Rating: "90"},
	}
	got := ids(Sort(wines, wine.SortRating, 2025))
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Sort(rating) = %v, want [a b c]", got)
	}
}

func TestFacets(t *testing.T) {
	got := Facets(testCollection())

	if !slices.Equal(got.Countries, []string{"France", "Italy", "Spain", "USA"}) {
		t.Errorf("Countries = %v", got.Countries)
	}
	if !slices.Equal(got.Vintages, []string{"2016", "2015", "2012"}) {
		t.Errorf("Vintages = %v, want newest first", got.Vintages)
	}
	if !slices.Equal(got.TanninLevels, []string{"High", "Medium"}) {
		t.Errorf("TanninLevels = %v", got.TanninLevels)
	}
	if !slices.Equal(got.DrinkWindowStatuses, wine.FilterStatuses) {
		t.Errorf("DrinkWindowStatuses = %v", got.DrinkWindowStatuses)
	}
	wantGrapes := []string{"Cabernet sauvignon", "Chardonnay", "Garnacha", "Graciano", "Merlot", "Nebbiolo", "Tempranillo"}
	if !slices.Equal(got.GrapeVarieties, wantGrapes) {
		t.Errorf("GrapeVarieties = %v, want %v", got.GrapeVarieties, wantGrapes)
	}

	if again := Facets(testCollection()); !reflect.DeepEqual(again, got) {
		t.Error("Facets is not idempotent")
	}
}

func TestGrapeVocabulary_StripsPercentagesAndAsides(t *testing.T) {
	wines := []wine.Wine{
		{GrapeVarieties: "80% Cabernet Sauvignon, 20% Merlot"},
		{GrapeVarieties: "Nebbiolo (min 85%)"},
	}
	got := GrapeVocabulary(wines)
	want := []string{"Cabernet sauvignon", "Merlot", "Nebbiolo"}
	if !slices.Equal(got, want) {
		t.Errorf("GrapeVocabulary() = %v, want %v", got, want)
	}
}

func TestGrapeVocabulary_DropsShortFragmentsAndDashes(t *testing.T) {
	wines := []wine.Wine{
		{GrapeVarieties: "- syrah, GS, 5%"},
		{GrapeVarieties: "SYRAH and Viognier"},
		{GrapeVarieties: "Carmenère min 85%"},
	}
	got := GrapeVocabulary(wines)
	want := []string{"Carmenère", "Syrah", "Viognier"}
	if !slices.Equal(got, want) {
		t.Errorf("GrapeVocabulary() = %v, want %v", got, want)
	}
}

func TestRun_HidesConsumedAndPages(t *testing.T) {
	wines := testCollection()
	consumed := map[string]int{"2": 1, "1": 1}

	res := Run(wines, consumed, Query{Sort: wine.SortProducerAZ}, 2025)
	if res.Total != 3 || !slices.Equal(ids(res.Wines), []string{"4", "3", "1"}) {
		t.Errorf("Run() = %v (total %d), want [4 3 1] total 3", ids(res.Wines), res.Total)
	}

	all := Run(wines, consumed, Query{Sort: wine.SortProducerAZ, ShowConsumed: true}, 2025)
	if all.Total != 4 {
		t.Errorf("ShowConsumed total = %d, want 4", all.Total)
	}

	paged := Run(wines, nil, Query{Sort: wine.SortProducerAZ, Limit: 2, Offset: 1}, 2025)
	if paged.Total != 4 || !slices.Equal(ids(paged.Wines), []string{"3", "1"}) {
		t.Errorf("paged = %v (total %d)", ids(paged.Wines), paged.Total)
	}

	past := Run(wines, nil, Query{Offset: 10}, 2025)
	if past.Wines == nil || len(past.Wines) != 0 || past.Total != 4 {
		t.Errorf("offset past end = %v (total %d)", past.Wines, past.Total)
	}
}

func TestSummarize(t *testing.T) {
	wines := testCollection()
	consumed := map[string]int{"1": 1, "2": 3, "4": 2}

	got := Summarize(wines, consumed)
	want := Stats{ActiveWines: 3, TotalBottles: 1 + 1 + 4}
	if got != want {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
	if r := Remaining(&wines[1], consumed); r != 0 {
		t.Errorf("Remaining over-consumed = %d, want 0", r)
	}
}

func TestQueryFromValues(t *testing.T) {
	v, _ := url.ParseQuery("q=barolo&sort=rating&showConsumed=true&country=Italy&grapeVariety=Nebbiolo&limit=10&offset=20")

	q, err := QueryFromValues(v)
	if err != nil {
		t.Fatalf("QueryFromValues: %v", err)
	}
	want := Query{
		Text:         "barolo",
		Sort:         wine.SortRating,
		ShowConsumed: true,
		Filters:      wine.Filters{Country: "Italy", GrapeVariety: "Nebbiolo"},
		Limit:        10,
		Offset:       20,
	}
	if q != want {
		t.Errorf("QueryFromValues() = %+v, want %+v", q, want)
	}

	def, err := QueryFromValues(url.Values{})
	if err != nil || def.Sort != wine.DefaultSortOrder || def.ShowConsumed {
		t.Errorf("defaults = %+v, err %v", def, err)
	}
}

func TestQueryFromValues_RejectsBadPaging(t *testing.T) {
	for _, raw := range []string{"limit=abc", "limit=-1", "offset=1.5"} {
		v, _ := url.ParseQuery(raw)
		if _, err := QueryFromValues(v); !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("QueryFromValues(%s) err = %v, want ErrInvalidQuery", raw, err)
		}
	}
}
