// README: Identifier and geographic value objects shared by modules.
package types

type ID string

// GeoCoordinate is an immutable latitude/longitude pair in decimal degrees.
type GeoCoordinate struct {
    Latitude  float64 `json:"latitude" yaml:"latitude"`
    Longitude float64 `json:"longitude" yaml:"longitude"`
}
