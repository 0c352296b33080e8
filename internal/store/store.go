package store

import (
	"context"

	"github.com/hyperengineering/cellar/internal/wine"
)

// Store defines the contract for durable collection storage: wines with
// soft deletion, consumption history, private notes and purchase-date
// overrides.
type Store interface {
	ListWines(ctx context.Context) ([]wine.Wine, error)
	GetWine(ctx context.Context, id string) (*wine.Wine, error)
	CreateWine(ctx context.Context, w wine.Wine) (*wine.Wine, error)
	UpdateWine(ctx context.Context, id string, patch wine.Patch) (*wine.Wine, error)
	DeleteWine(ctx context.Context, id string) error
	RestoreWine(ctx context.Context, id string) error
	ImportWines(ctx context.Context, wines []wine.Wine, origin wine.Origin) (int, error)
	WinesWithInlineImages(ctx context.Context, limit int) ([]wine.Wine, error)

	ConsumptionHistory(ctx context.Context, wineID string) ([]wine.ConsumptionEvent, error)
	AddConsumption(ctx context.Context, wineID string, ev wine.ConsumptionEvent) (*wine.ConsumptionEvent, error)
	RemoveConsumption(ctx context.Context, wineID, consumptionID string) error
	ConsumptionCounts(ctx context.Context) (map[string]int, error)

	UserNote(ctx context.Context, wineID string) (string, error)
	SaveUserNote(ctx context.Context, wineID, note string) error
	PurchaseDate(ctx context.Context, wineID string) (string, error)
	SavePurchaseDate(ctx context.Context, wineID, date string) error
	PurchaseDates(ctx context.Context) (map[string]string, error)

	Stats(ctx context.Context) (*Stats, error)
	Ping(ctx context.Context) error
	Close() error
}

// Stats holds aggregate counts for health and metrics reporting.
type Stats struct {
	Wines             int64 `json:"wines"`
	UserWines         int64 `json:"userWines"`
	DeletedWines      int64 `json:"deletedWines"`
	ConsumptionEvents int64 `json:"consumptionEvents"`
}
