// Package models defines the metric data structures used throughout the dashboard.
// These structures are serialized to JSON for the /api/system endpoint and the
// websocket stream.
package models

import "time"

// Snapshot represents a single point-in-time collection of all system metrics.
type Snapshot struct {
	Timestamp time.Time `json:"-"`

	CPU     []float64        `json:"cpu"`
	CPUTemp Reading[float64] `json:"cpu_temp"`
	RAM     float64          `json:"ram"`
	Disk    float64          `json:"disk"`
	Network Network          `json:"network"`
	GPU     []GPU            `json:"gpu"`
	Battery Reading[Battery] `json:"battery"`
	System  SystemInfo       `json:"system"`

	// GPUReason explains an empty GPU list caused by a failing source.
	// It is empty when the source answered, even with no devices.
	GPUReason string `json:"-"`
}

// Network holds cumulative byte counters since boot and the rates derived
// from the previous sample.
type Network struct {
	Sent          uint64  `json:"sent"`
	Recv          uint64  `json:"recv"`
	UploadSpeed   float64 `json:"upload_speed"`   // bytes/s
	DownloadSpeed float64 `json:"download_speed"` // bytes/s
}

// GPU represents a single graphics device. Fields a vendor tool cannot report
// are Unavailable and serialize as null.
type GPU struct {
	Name      string           `json:"name"`
	Load      Reading[float64] `json:"load"`       // percent
	Temp      Reading[float64] `json:"temp"`       // °C
	VRAMUsed  Reading[float64] `json:"vram_used"`  // MB
	VRAMTotal Reading[float64] `json:"vram_total"` // MB
}

// Special values for Battery.SecsLeft.
const (
	SecsLeftUnknown   int64 = -1
	SecsLeftUnlimited int64 = -2
)

// Battery describes the host battery.
type Battery struct {
	Percent  float64 `json:"percent"`
	Charging bool    `json:"charging"`
	SecsLeft int64   `json:"secsleft"`
}

// SystemInfo holds static host facts plus the uptime at sample time.
type SystemInfo struct {
	OS        string `json:"os"`
	OSVersion string `json:"os_version"`
	Machine   string `json:"machine"`
	Hostname  string `json:"hostname"`
	Uptime    int64  `json:"uptime"` // seconds
}

// Missing returns the reason for every optional field that is unavailable,
// keyed by JSON field name.
func (s *Snapshot) Missing() map[string]string {
	missing := make(map[string]string)
	if !s.CPUTemp.Present() {
		missing["cpu_temp"] = s.CPUTemp.Reason()
	}
	if !s.Battery.Present() {
		missing["battery"] = s.Battery.Reason()
	}
	if s.GPUReason != "" {
		missing["gpu"] = s.GPUReason
	}
	return missing
}

// CollectorResult holds the output of a single collector run.
type CollectorResult struct {
	Name  string
	Data  interface{}
	Error error
}
