package model

import (
	"fmt"
	"strings"
)

// CaseStatus is the investigative status of an incident.
type CaseStatus int

const (
	// CaseOpenOrUnknown covers open cases and rows with no usable status.
	CaseOpenOrUnknown CaseStatus = iota

	// CaseClosed means the source marked the case closed.
	CaseClosed
)

// String returns the label used in reports.
func (s CaseStatus) String() string {
	switch s {
	case CaseClosed:
		return "Closed"
	case CaseOpenOrUnknown:
		return "Open/Unknown"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s CaseStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *CaseStatus) UnmarshalText(text []byte) error {
	for _, v := range CaseStatuses() {
		if strings.EqualFold(v.String(), string(text)) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown case status %q", text)
}

// CaseStatuses lists every CaseStatus in report order.
func CaseStatuses() []CaseStatus {
	return []CaseStatus{CaseClosed, CaseOpenOrUnknown}
}

// CameraStatus records whether surveillance footage was reported.
type CameraStatus int

const (
	// CameraUnknown means the column was absent, empty or inconclusive.
	CameraUnknown CameraStatus = iota

	// CameraPresent means the column mentioned a camera count.
	CameraPresent

	// NoCamera means the column said "none".
	NoCamera
)

// String returns the label used in reports.
func (s CameraStatus) String() string {
	switch s {
	case CameraPresent:
		return "Camera Present"
	case NoCamera:
		return "No Camera"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s CameraStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *CameraStatus) UnmarshalText(text []byte) error {
	for _, v := range CameraStatuses() {
		if strings.EqualFold(v.String(), string(text)) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown camera status %q", text)
}

// CameraStatuses lists every CameraStatus in report order.
func CameraStatuses() []CameraStatus {
	return []CameraStatus{CameraPresent, NoCamera, CameraUnknown}
}

// Method is the way the victim was killed, derived from the notes column.
type Method int

const (
	// MethodOtherUnknown is used when no keyword matched.
	MethodOtherUnknown Method = iota
	MethodShooting
	MethodStabbing
	MethodAssault
)

// String returns the label used in reports.
func (m Method) String() string {
	switch m {
	case MethodShooting:
		return "Shooting"
	case MethodStabbing:
		return "Stabbing"
	case MethodAssault:
		return "Assault"
	default:
		return "Other/Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) error {
	for _, v := range Methods() {
		if strings.EqualFold(v.String(), string(text)) {
			*m = v
			return nil
		}
	}
	return fmt.Errorf("unknown method %q", text)
}

// Methods lists every Method in report order.
func Methods() []Method {
	return []Method{MethodShooting, MethodStabbing, MethodAssault, MethodOtherUnknown}
}
