package models

import "time"

// PassengerVolume is one day's TSA checkpoint passenger count
type PassengerVolume struct {
	ID     int       `json:"id"`
	Date   time.Time `json:"date"`   // Calendar date, midnight UTC
	Volume int64     `json:"volume"`
	Source string    `json:"source"` // Page the row was scraped from
}

// TrendPoint is one interest-over-time sample for a search keyword
type TrendPoint struct {
	ID        int       `json:"id"`
	Date      time.Time `json:"date"`    // Start of the sampled week, midnight UTC
	Keyword   string    `json:"keyword"` // e.g. "flight status"
	Column    string    `json:"column"`  // Column name in the combined table, e.g. "flight_status"
	Value     float64   `json:"value"`   // Relative interest, 0-100
	IsPartial bool      `json:"is_partial"`
}
