package model

import (
	"fmt"
	"strconv"
	"strings"
)

// EventCategory is a CAMEO root event code, "01" through "20".
type EventCategory string

const (
	EventVerbalCooperation     EventCategory = "01"
	EventAppeal                EventCategory = "02"
	EventIntendCooperation     EventCategory = "03"
	EventConsult               EventCategory = "04"
	EventDiplomaticCooperation EventCategory = "05"
	EventMaterialCooperation   EventCategory = "06"
	EventProvideAid            EventCategory = "07"
	EventYield                 EventCategory = "08"
	EventInvestigate           EventCategory = "09"
	EventDemand                EventCategory = "10"
	EventDisapprove            EventCategory = "11"
	EventReject                EventCategory = "12"
	EventThreaten              EventCategory = "13"
	EventProtest               EventCategory = "14"
	EventExhibitForce          EventCategory = "15"
	EventReduceRelations       EventCategory = "16"
	EventCoerce                EventCategory = "17"
	EventAssault               EventCategory = "18"
	EventFight                 EventCategory = "19"
	EventMassViolence          EventCategory = "20"
)

var cameoLabels = map[EventCategory]string{
	EventVerbalCooperation:     "Verbal Cooperation",
	EventAppeal:                "Appeal",
	EventIntendCooperation:     "Intend to Cooperate",
	EventConsult:               "Consult",
	EventDiplomaticCooperation: "Diplomatic Cooperation",
	EventMaterialCooperation:   "Material Cooperation",
	EventProvideAid:            "Provide Aid",
	EventYield:                 "Yield",
	EventInvestigate:           "Investigate",
	EventDemand:                "Demand",
	EventDisapprove:            "Disapprove",
	EventReject:                "Reject",
	EventThreaten:              "Threaten",
	EventProtest:               "Protest",
	EventExhibitForce:          "Exhibit Military Force",
	EventReduceRelations:       "Reduce/Sever Relations",
	EventCoerce:                "Coerce",
	EventAssault:               "Assault",
	EventFight:                 "Fight",
	EventMassViolence:          "Mass Violence",
}

const (
	conflictThreshold    = 10
	cooperationThreshold = 9
)

func (c EventCategory) Valid() bool {
	_, ok := cameoLabels[c]
	return ok
}

func (c *EventCategory) UnmarshalText(b []byte) error {
	v := EventCategory(b)
	if !v.Valid() {
		return fmt.Errorf("invalid event category %q", v)
	}
	*c = v
	return nil
}

// Label returns the human-readable CAMEO label, or the raw code if unknown.
func (c EventCategory) Label() string {
	if l, ok := cameoLabels[c]; ok {
		return l
	}
	return string(c)
}

// IsConflictual reports whether the category is at or above the conflict
// threshold (codes 10-20).
func (c EventCategory) IsConflictual() bool {
	n, err := strconv.Atoi(string(c))
	return err == nil && n >= conflictThreshold
}

// IsCooperative reports whether the category is a cooperative code (01-09).
func (c EventCategory) IsCooperative() bool {
	n, err := strconv.Atoi(string(c))
	return err == nil && n <= cooperationThreshold
}

// ClassifyCAMEO maps a raw CAMEO root code (e.g. "4", "04", "043") to its
// event category.
func ClassifyCAMEO(code string) (EventCategory, bool) {
	cleaned := strings.TrimSpace(code)
	if len(cleaned) < 2 {
		cleaned = strings.Repeat("0", 2-len(cleaned)) + cleaned
	}
	c := EventCategory(cleaned[:2])
	if !c.Valid() {
		return "", false
	}
	return c, true
}
