package hydrometer

import "math"

// FahrenheitToCelsius converts a temperature in °F to °C.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// CelsiusToFahrenheit converts a temperature in °C to °F.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// SpecificGravityToPlato converts specific gravity to degrees Plato using the
// standard cubic approximation.
func SpecificGravityToPlato(sg float64) float64 {
	return 135.997*math.Pow(sg, 3) - 630.272*math.Pow(sg, 2) + 1111.14*sg - 616.868
}
