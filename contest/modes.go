package contest

import "strings"

// SimpleMode is the coarse CW / Phone / Data grouping used by the summary
// table and the modes pie.
type SimpleMode int

const (
	SimpleOther SimpleMode = iota
	SimpleCW
	SimplePhone
	SimpleData
)

// SimpleModes lists the counted simple modes in column order.
var SimpleModes = []SimpleMode{SimpleCW, SimplePhone, SimpleData}

func (m SimpleMode) String() string {
	switch m {
	case SimpleCW:
		return "CW"
	case SimplePhone:
		return "Phone"
	case SimpleData:
		return "Data"
	default:
		return "N/A"
	}
}

// Column returns the matrix column for a counted simple mode, or -1.
func (m SimpleMode) Column() int {
	switch m {
	case SimpleCW:
		return 0
	case SimplePhone:
		return 1
	case SimpleData:
		return 2
	default:
		return -1
	}
}

type modeEntry struct {
	id     int
	name   string
	simple SimpleMode
}

// modeTable maps qso_log.mode_id values. Id 0 is reserved for unknown modes.
var modeTable = []modeEntry{
	{id: 0, name: "N/A", simple: SimpleOther},
	{id: 1, name: "CW", simple: SimpleCW},
	{id: 2, name: "AM", simple: SimplePhone},
	{id: 3, name: "FM", simple: SimplePhone},
	{id: 4, name: "LSB", simple: SimplePhone},
	{id: 5, name: "USB", simple: SimplePhone},
	{id: 6, name: "SSB", simple: SimplePhone},
	{id: 7, name: "RTTY", simple: SimpleData},
	{id: 8, name: "PSK31", simple: SimpleData},
	{id: 9, name: "PSK63", simple: SimpleData},
	{id: 10, name: "FT8", simple: SimpleData},
	{id: 11, name: "FT4", simple: SimpleData},
	{id: 12, name: "JT65", simple: SimpleData},
	{id: 13, name: "JS8", simple: SimpleData},
	{id: 14, name: "MFSK", simple: SimpleData},
	{id: 15, name: "OLIVIA", simple: SimpleData},
	{id: 16, name: "DIGI", simple: SimpleData},
	{id: 17, name: "PH", simple: SimplePhone},
	{id: 18, name: "DG", simple: SimpleData},
}

var modeByName = func() map[string]int {
	m := make(map[string]int, len(modeTable))
	for _, e := range modeTable {
		m[e.name] = e.id
	}
	return m
}()

// ModeID maps a logged mode string (case-insensitive) to a mode id; unknown
// modes map to 0.
func ModeID(name string) int {
	if id, ok := modeByName[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return id
	}
	return 0
}

// ModeName returns the logged name for a mode id.
func ModeName(id int) string {
	if id >= 0 && id < len(modeTable) {
		return modeTable[id].name
	}
	return "N/A"
}

// SimpleModeOf groups a mode id into CW / Phone / Data.
func SimpleModeOf(id int) SimpleMode {
	if id >= 0 && id < len(modeTable) {
		return modeTable[id].simple
	}
	return SimpleOther
}
