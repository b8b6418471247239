package travel

import (
	"fmt"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/toolx"
)

const (
	ToolRetrievePlaces = "retrieve_places"
	ToolWeatherInfo    = "weather_info"
)

// DefaultPlaces is returned for countries missing from the table
const DefaultPlaces = "Generic tropical islands"

var topPlaces = map[string]string{
	"Japan":  "Tokyo, Kyoto, Osaka",
	"Bali":   "Uluwatu, Ubud",
	"France": "Paris, Nice",
}

// RetrievePlaces returns the top destinations of a country. Lookup is exact
// and case-sensitive.
func RetrievePlaces(country string) string {
	places, ok := topPlaces[country]
	if !ok {
		places = DefaultPlaces
	}
	return fmt.Sprintf("Top places in %s: %s.", country, places)
}

// WeatherInfo returns canned weather for any city
func WeatherInfo(city string) string {
	return fmt.Sprintf("The weather in %s is currently Sunny and 28°C.", city)
}

// Tools returns both lookups as agent tools
func Tools() *toolx.ToolxClient {
	return toolx.FromToolx(
		toolx.NewStringTool(
			ToolRetrievePlaces,
			"Returns top travel destinations for a country.",
			"country",
			"Country name, e.g. Japan",
			RetrievePlaces,
		),
		toolx.NewStringTool(
			ToolWeatherInfo,
			"Returns fake weather info for a city.",
			"city",
			"City name, e.g. Tokyo",
			WeatherInfo,
		),
	)
}
