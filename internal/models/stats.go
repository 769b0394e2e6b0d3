package models

// StoreStats holds collection sizes, reported by the health endpoint and metrics
type StoreStats struct {
	Locations int `json:"locations"`
	Routes    int `json:"routes"`
	Buses     int `json:"buses"`
	Schedules int `json:"schedules"`
}
