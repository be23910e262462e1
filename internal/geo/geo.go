// Package geo holds the pure pieces of GPS reconciliation: great-circle
// distance and normalization of reverse-geocoded addresses.
package geo

import (
	"math"
	"strings"
)

// EarthRadiusKm is the mean Earth radius used by HaversineKm.
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometres between two
// points given in decimal degrees.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// RawAddress mirrors the address block of a Nominatim reverse response.
// Nil means the key was absent.
type RawAddress struct {
	Road        *string `json:"road,omitempty"`
	HouseNumber *string `json:"house_number,omitempty"`
	City        *string `json:"city,omitempty"`
	Town        *string `json:"town,omitempty"`
	Village     *string `json:"village,omitempty"`
	State       *string `json:"state,omitempty"`
	ISO3166Lvl4 *string `json:"ISO3166-2-lvl4,omitempty"`
	Postcode    *string `json:"postcode,omitempty"`
	Country     *string `json:"country,omitempty"`
	CountryCode *string `json:"country_code,omitempty"`
}

// Address is the flattened form persisted on a visit.
type Address struct {
	City          *string
	Region        *string
	RegionCode    *string
	Country       *string
	CountryCode   *string
	ZipCode       *string
	StreetAddress *string
}

// NormalizeAddress flattens a reverse-geocode address. A nil input yields an
// Address with every field nil.
func NormalizeAddress(raw *RawAddress) Address {
	if raw == nil {
		return Address{}
	}
	return Address{
		City:          ResolveCity(raw.City, raw.Town, raw.Village),
		Region:        present(raw.State),
		RegionCode:    ParseRegionCode(raw.ISO3166Lvl4),
		Country:       present(raw.Country),
		CountryCode:   NormalizeCountryCode(raw.CountryCode),
		ZipCode:       present(raw.Postcode),
		StreetAddress: ComposeStreet(raw.HouseNumber, raw.Road),
	}
}

// ResolveCity picks the first present value of city, town, village.
func ResolveCity(city, town, village *string) *string {
	for _, candidate := range []*string{city, town, village} {
		if v := present(candidate); v != nil {
			return v
		}
	}
	return nil
}

// ParseRegionCode returns the subdivision part of a code like "US-CA".
// A code without '-' is returned as is.
func ParseRegionCode(iso *string) *string {
	if present(iso) == nil {
		return nil
	}
	parts := strings.Split(*iso, "-")
	return present(&parts[len(parts)-1])
}

// NormalizeCountryCode upper-cases a two-letter country code.
func NormalizeCountryCode(code *string) *string {
	if present(code) == nil {
		return nil
	}
	upper := strings.ToUpper(*code)
	return &upper
}

// ComposeStreet joins house number and road. A house number without a road
// is dropped.
func ComposeStreet(houseNumber, road *string) *string {
	r := present(road)
	if r == nil {
		return nil
	}
	if n := present(houseNumber); n != nil {
		street := *n + " " + *r
		return &street
	}
	return r
}

// present treats empty strings like absent keys.
func present(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
