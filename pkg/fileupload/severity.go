package fileupload

import "strings"

type Severity string

func (s Severity) String() string {
	return string(s)
}

const (
	Unknown  Severity = "Unknown"
	Info     Severity = "Info"
	Low      Severity = "Low"
	Medium   Severity = "Medium"
	High     Severity = "High"
	Critical Severity = "Critical"
)

func NewSeverity(s string) Severity {
	switch strings.ToLower(s) {
	case "info":
		return Info
	case "low":
		return Low
	case "medium":
		return Medium
	case "high":
		return High
	case "critical":
		return Critical
	default:
		return Unknown
	}
}

// Order returns the sort position of a severity, most severe first
func (s Severity) Order() int {
	switch s {
	case Critical:
		return 1
	case High:
		return 2
	case Medium:
		return 3
	case Low:
		return 4
	case Info:
		return 5
	case Unknown:
		return 6
	default:
		return 7
	}
}
