package models

import (
	"time"
)

type PermissionStatus string

const (
	PermissionGranted     PermissionStatus = "granted"
	PermissionDenied      PermissionStatus = "denied"
	PermissionPrompt      PermissionStatus = "prompt"
	PermissionUnavailable PermissionStatus = "unavailable"
)

// Valid reports whether p is one of the four browser permission outcomes.
func (p PermissionStatus) Valid() bool {
	switch p {
	case PermissionGranted, PermissionDenied, PermissionPrompt, PermissionUnavailable:
		return true
	}
	return false
}

// Visit is one page load. IP-derived fields are written once at insert; the
// GPS block stays null until the browser reports a permission outcome.
type Visit struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	IPAddress string `gorm:"size:45;not null" json:"ipAddress"`

	City        *string  `gorm:"size:100" json:"city"`
	Region      *string  `gorm:"size:100" json:"region"`
	RegionCode  *string  `gorm:"size:10" json:"regionCode"`
	Country     *string  `gorm:"size:100" json:"country"`
	CountryCode *string  `gorm:"size:5" json:"countryCode"`
	ZipCode     *string  `gorm:"size:20" json:"zipCode"`
	Latitude    *float64 `gorm:"type:decimal(10,7)" json:"latitude"`
	Longitude   *float64 `gorm:"type:decimal(10,7)" json:"longitude"`
	Timezone    *string  `gorm:"size:50" json:"timezone"`
	ISP         *string  `gorm:"column:isp;size:255" json:"isp"`
	Org         *string  `gorm:"size:255" json:"org"`
	ASNumber    *string  `gorm:"column:as_number;size:255" json:"asNumber"`
	UserAgent   *string  `gorm:"type:text" json:"userAgent"`

	// Parsed from UserAgent at insert.
	Browser    *string `gorm:"size:100" json:"browser"`
	OS         *string `gorm:"column:os;size:100" json:"os"`
	DeviceType *string `gorm:"size:20" json:"deviceType"`

	GPSLatitude         *float64          `gorm:"column:gps_latitude;type:decimal(10,7)" json:"gpsLatitude"`
	GPSLongitude        *float64          `gorm:"column:gps_longitude;type:decimal(10,7)" json:"gpsLongitude"`
	GPSAccuracy         *float64          `gorm:"column:gps_accuracy;type:decimal(10,2)" json:"gpsAccuracy"`
	GPSCity             *string           `gorm:"column:gps_city;size:100" json:"gpsCity"`
	GPSRegion           *string           `gorm:"column:gps_region;size:100" json:"gpsRegion"`
	GPSRegionCode       *string           `gorm:"column:gps_region_code;size:10" json:"gpsRegionCode"`
	GPSCountry          *string           `gorm:"column:gps_country;size:100" json:"gpsCountry"`
	GPSCountryCode      *string           `gorm:"column:gps_country_code;size:5" json:"gpsCountryCode"`
	GPSZipCode          *string           `gorm:"column:gps_zip_code;size:20" json:"gpsZipCode"`
	GPSStreetAddress    *string           `gorm:"column:gps_street_address;size:255" json:"gpsStreetAddress"`
	GPSPermissionStatus *PermissionStatus `gorm:"column:gps_permission_status;size:20" json:"gpsPermissionStatus"`
	GPSErrorMessage     *string           `gorm:"column:gps_error_message;type:text" json:"gpsErrorMessage"`
	LocationDistance    *float64          `gorm:"type:decimal(10,2)" json:"locationDistance"`

	VisitedAt time.Time `gorm:"not null;index;autoCreateTime" json:"visitedAt"`
}

func (Visit) TableName() string {
	return "visits"
}
