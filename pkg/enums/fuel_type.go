package enums

import "fmt"

// FuelType mirrors the fuel classification used by the FIPE reference table.
type FuelType string

const (
	FuelTypeGasoline FuelType = "gasoline"
	FuelTypeEthanol  FuelType = "ethanol"
	FuelTypeFlex     FuelType = "flex"
	FuelTypeDiesel   FuelType = "diesel"
	FuelTypeElectric FuelType = "electric"
	FuelTypeHybrid   FuelType = "hybrid"
)

var validFuelTypes = []FuelType{
	FuelTypeGasoline,
	FuelTypeEthanol,
	FuelTypeFlex,
	FuelTypeDiesel,
	FuelTypeElectric,
	FuelTypeHybrid,
}

// String implements fmt.Stringer.
func (f FuelType) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FuelType.
func (f FuelType) IsValid() bool {
	for _, candidate := range validFuelTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFuelType converts raw input into a FuelType.
func ParseFuelType(value string) (FuelType, error) {
	for _, candidate := range validFuelTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fuel type %q", value)
}
