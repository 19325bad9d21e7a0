package model

import "fmt"

// ForecastStatus is the lifecycle state of a forecast.
type ForecastStatus string

const (
	ForecastOpen          ForecastStatus = "open"
	ForecastResolvedTrue  ForecastStatus = "resolved_true"
	ForecastResolvedFalse ForecastStatus = "resolved_false"
	ForecastExpired       ForecastStatus = "expired"
)

// Valid reports whether s is a known forecast status.
func (s ForecastStatus) Valid() bool {
	switch s {
	case ForecastOpen, ForecastResolvedTrue, ForecastResolvedFalse, ForecastExpired:
		return true
	}
	return false
}

func (s *ForecastStatus) UnmarshalText(b []byte) error {
	v := ForecastStatus(b)
	if !v.Valid() {
		return fmt.Errorf("invalid forecast status %q", v)
	}
	*s = v
	return nil
}

// ScenarioStatus is the lifecycle state of a scenario. Only ScenarioActive is
// ever assigned by the generator.
type ScenarioStatus string

const (
	ScenarioActive   ScenarioStatus = "active"
	ScenarioRetired  ScenarioStatus = "retired"
	ScenarioRealized ScenarioStatus = "realized"
)

func (s ScenarioStatus) Valid() bool {
	switch s {
	case ScenarioActive, ScenarioRetired, ScenarioRealized:
		return true
	}
	return false
}

func (s *ScenarioStatus) UnmarshalText(b []byte) error {
	v := ScenarioStatus(b)
	if !v.Valid() {
		return fmt.Errorf("invalid scenario status %q", v)
	}
	*s = v
	return nil
}

// SignpostStatus is the observed state of a signpost indicator.
type SignpostStatus string

const (
	SignpostNotSeen   SignpostStatus = "not_seen"
	SignpostEmerging  SignpostStatus = "emerging"
	SignpostConfirmed SignpostStatus = "confirmed"
)

func (s SignpostStatus) Valid() bool {
	switch s {
	case SignpostNotSeen, SignpostEmerging, SignpostConfirmed:
		return true
	}
	return false
}

func (s *SignpostStatus) UnmarshalText(b []byte) error {
	v := SignpostStatus(b)
	if !v.Valid() {
		return fmt.Errorf("invalid signpost status %q", v)
	}
	*s = v
	return nil
}

// Domain is the doctrinal domain a forecast or scenario belongs to.
type Domain string

const (
	DomainGeopolitics    Domain = "geopolitics"
	DomainEconomic       Domain = "economic"
	DomainMilitary       Domain = "military"
	DomainCyber          Domain = "cyber"
	DomainCivilizational Domain = "civilizational"
	DomainDiplomatic     Domain = "diplomatic"
)

// Domains lists every known domain in declaration order.
var Domains = []Domain{
	DomainGeopolitics,
	DomainEconomic,
	DomainMilitary,
	DomainCyber,
	DomainCivilizational,
	DomainDiplomatic,
}

func (d Domain) Valid() bool {
	for _, known := range Domains {
		if d == known {
			return true
		}
	}
	return false
}

func (d *Domain) UnmarshalText(b []byte) error {
	v := Domain(b)
	if !v.Valid() {
		return fmt.Errorf("invalid domain %q", v)
	}
	*d = v
	return nil
}

// ParseDomain parses a domain name, case-sensitively.
func ParseDomain(s string) (Domain, error) {
	var d Domain
	if err := d.UnmarshalText([]byte(s)); err != nil {
		return "", err
	}
	return d, nil
}
