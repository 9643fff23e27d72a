// Package entity defines the domain models for the serieslist feature.
package entity

import "time"

// SeriesDefinition is one rate series known to the system. Series of the same
// tenor are tried in SortKey order when loading data for that tenor.
type SeriesDefinition struct {
	ID        uint      `gorm:"primaryKey"`
	Tenor     string    `gorm:"size:16;not null;index"`
	Label     string    `gorm:"size:255;not null"`
	Dataset   string    `gorm:"size:32;not null;uniqueIndex:series_dataset_key,priority:1"`
	Key       string    `gorm:"column:series_key;size:128;not null;uniqueIndex:series_dataset_key,priority:2"`
	IsActive  bool      `gorm:"not null;default:true"`
	SortKey   int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// FullKey returns the "dataset/key" form used by the rate store and the ECB client.
func (d SeriesDefinition) FullKey() string {
	return d.Dataset + "/" + d.Key
}

// DefaultSeries is the built-in catalog: 3M Euribor, then the ECB main
// refinancing rate as a proxy when Euribor is unavailable.
var DefaultSeries = []SeriesDefinition{
	{Tenor: "3M", Label: "Euribor 3M (monthly average)", Dataset: "FM", Key: "M.U2.EUR.RT.MM.EURIBOR3MD_.HSTA", IsActive: true, SortKey: 1},
	{Tenor: "3M", Label: "ECB main refinancing rate", Dataset: "MIR", Key: "M.B.U2.EUR.4F.KR.MRR_FR.LEV", IsActive: true, SortKey: 2},
}
