// Package contest holds the reference tables shared by the importer, the
// aggregation engine, and the renderers: band ids, mode ids with their
// simple-mode grouping, and the known contest sections.
package contest

import (
	"strconv"
	"strings"
)

// Band describes one contest band as stored in the qso_log band_id column.
type Band struct {
	ID    int     // qso_log.band_id; 0 is reserved for "unknown"
	Name  string  // canonical band name (e.g., "20m", "70cm")
	Title string  // short chart/table label
	MHz   float64 // nominal band edge as logged by N1MM+ (e.g., 14, 3.5)
}

// UnknownBandID is stored when the logged band does not match the table.
const UnknownBandID = 0

var bandTable = []Band{
	{ID: 1, Name: "160m", Title: "160", MHz: 1.8},
	{ID: 2, Name: "80m", Title: "80", MHz: 3.5},
	{ID: 3, Name: "40m", Title: "40", MHz: 7},
	{ID: 4, Name: "20m", Title: "20", MHz: 14},
	{ID: 5, Name: "15m", Title: "15", MHz: 21},
	{ID: 6, Name: "10m", Title: "10", MHz: 28},
	{ID: 7, Name: "6m", Title: "6", MHz: 50},
	{ID: 8, Name: "2m", Title: "2", MHz: 144},
	{ID: 9, Name: "70cm", Title: "70cm", MHz: 420},
}

var bandIndex = func() map[int]int {
	m := make(map[int]int, len(bandTable))
	for i, b := range bandTable {
		m[b.ID] = i
	}
	return m
}()

// Bands returns the tracked bands in display order.
func Bands() []Band {
	out := make([]Band, len(bandTable))
	copy(out, bandTable)
	return out
}

// BandCount is the number of tracked bands (matrix rows, series columns).
func BandCount() int {
	return len(bandTable)
}

// BandIndex returns the position of a band id in Bands(), or -1.
func BandIndex(id int) int {
	if idx, ok := bandIndex[id]; ok {
		return idx
	}
	return -1
}

// BandTitle returns the short label for a band id ("N/A" when unknown).
func BandTitle(id int) string {
	if idx := BandIndex(id); idx >= 0 {
		return bandTable[idx].Title
	}
	return "N/A"
}

// BandName returns the canonical band name for an id ("N/A" when unknown).
func BandName(id int) string {
	if idx := BandIndex(id); idx >= 0 {
		return bandTable[idx].Name
	}
	return "N/A"
}

// BandIDForLabel maps an N1MM+ band value ("14", "3.5", "1.8", "144") or a
// band name ("20m", "70CM") to a band id. Unmatched labels map to
// UnknownBandID.
func BandIDForLabel(label string) int {
	cleaned := strings.ToLower(strings.TrimSpace(label))
	if cleaned == "" {
		return UnknownBandID
	}
	for _, b := range bandTable {
		if cleaned == b.Name {
			return b.ID
		}
	}
	mhz, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return UnknownBandID
	}
	return BandIDForMHz(mhz)
}

// BandIDForMHz maps a logged band edge in MHz to a band id.
func BandIDForMHz(mhz float64) int {
	for _, b := range bandTable {
		// N1MM+ logs 432 for the 70cm band and 1.8/3.5 for the low bands.
		if mhz >= b.MHz && mhz < b.MHz*1.05+0.5 {
			return b.ID
		}
	}
	return UnknownBandID
}
