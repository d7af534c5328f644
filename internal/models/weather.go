package models

import "time"

// WeatherMessage is the inbound record pushed by the companion device.
// Every field is optional on the wire; a message is only usable when all four are set.
type WeatherMessage struct {
	Temperature *int32  `json:"temperature,omitempty"`
	Conditions  *int32  `json:"conditions,omitempty"`
	Sunrise     *uint32 `json:"sunrise,omitempty"`
	Sunset      *uint32 `json:"sunset,omitempty"`
}

// Complete reports whether all four fields are present.
func (m WeatherMessage) Complete() bool {
	return m.Temperature != nil && m.Conditions != nil && m.Sunrise != nil && m.Sunset != nil
}

// WeatherSample is an accepted weather message.
type WeatherSample struct {
	TemperatureC  int32     `json:"temperatureC"`
	ConditionCode int32     `json:"conditionCode"`
	Sunrise       uint32    `json:"sunrise"`
	Sunset        uint32    `json:"sunset"`
	ReceivedAt    time.Time `json:"receivedAt"`
}

// RefreshRequest is the fixed-shape trigger sent to the companion. The value is ignored.
type RefreshRequest struct {
	Key   uint8 `json:"key"`
	Value uint8 `json:"value"`
}
