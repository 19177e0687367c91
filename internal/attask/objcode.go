package attask

import (
	"fmt"
	"sort"
	"strings"
)

// ObjCode identifies a record type in the API.
type ObjCode string

// Supported object codes.
const (
	ObjProject           ObjCode = "proj"
	ObjTask              ObjCode = "task"
	ObjIssue             ObjCode = "optask"
	ObjTeam              ObjCode = "team"
	ObjHour              ObjCode = "hour"
	ObjTimesheet         ObjCode = "tshet"
	ObjUser              ObjCode = "user"
	ObjAssignment        ObjCode = "assgn"
	ObjUserPref          ObjCode = "userpf"
	ObjCategory          ObjCode = "ctgy"
	ObjCategoryParameter ObjCode = "ctgypa"
	ObjParameter         ObjCode = "param"
	ObjParameterGroup    ObjCode = "pgrp"
	ObjParameterOption   ObjCode = "popt"
	ObjParameterValue    ObjCode = "pval"
	ObjRole              ObjCode = "role"
	ObjGroup             ObjCode = "group"
	ObjNote              ObjCode = "note"
	ObjDocument          ObjCode = "docu"
	ObjDocumentVersion   ObjCode = "docv"
	ObjExpense           ObjCode = "expns"
	ObjCustomEnum        ObjCode = "custem"
	ObjProgram           ObjCode = "prgm"
)

// objCodeNames maps long, human-friendly names to codes.
//
//nolint:gochecknoglobals // Static lookup table.
var objCodeNames = map[string]ObjCode{
	"project":            ObjProject,
	"task":               ObjTask,
	"issue":              ObjIssue,
	"team":               ObjTeam,
	"hour":               ObjHour,
	"timesheet":          ObjTimesheet,
	"user":               ObjUser,
	"assignment":         ObjAssignment,
	"user-pref":          ObjUserPref,
	"category":           ObjCategory,
	"category-parameter": ObjCategoryParameter,
	"parameter":          ObjParameter,
	"parameter-group":    ObjParameterGroup,
	"parameter-option":   ObjParameterOption,
	"parameter-value":    ObjParameterValue,
	"role":               ObjRole,
	"group":              ObjGroup,
	"note":               ObjNote,
	"document":           ObjDocument,
	"document-version":   ObjDocumentVersion,
	"expense":            ObjExpense,
	"custom-enum":        ObjCustomEnum,
	"program":            ObjProgram,
}

// String implements fmt.Stringer.
func (c ObjCode) String() string { return string(c) }

// Valid reports whether c is one of the supported codes.
func (c ObjCode) Valid() bool {
	for _, code := range objCodeNames {
		if code == c {
			return true
		}
	}
	return false
}

// ParseObjCode accepts either a code ("optask") or its long name ("issue"),
// case-insensitively.
func ParseObjCode(s string) (ObjCode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if code, ok := objCodeNames[key]; ok {
		return code, nil
	}
	if c := ObjCode(key); c.Valid() {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownObjCode, s)
}

// ObjCodes returns every supported code, sorted.
func ObjCodes() []ObjCode {
	codes := make([]ObjCode, 0, len(objCodeNames))
	for _, code := range objCodeNames {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
