package app

import (
	"github.com/go-playground/validator/v10"

	"hotel_booking/internal/domain"
)

var (
	propertyTypes = map[domain.PropertyType]bool{
		domain.PropertyHotel: true, domain.PropertyApartment: true, domain.PropertyResort: true,
		domain.PropertyVilla: true, domain.PropertyHostel: true, domain.PropertyHomestay: true,
	}
	amenities = map[domain.RoomAmenity]bool{
		domain.AmenityWifi: true, domain.AmenityAirCon: true, domain.AmenityTV: true,
		domain.AmenityMinibar: true, domain.AmenityBalcony: true, domain.AmenityBathtub: true,
		domain.AmenityKitchen: true, domain.AmenitySafe: true, domain.AmenityBreakfast: true,
		domain.AmenityParking: true,
	}
)

// NewValidator returns a validator that knows the enum tags used by the inputs.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("propertytype", func(fl validator.FieldLevel) bool {
		return propertyTypes[domain.PropertyType(fl.Field().String())]
	})
	_ = v.RegisterValidation("amenity", func(fl validator.FieldLevel) bool {
		return amenities[domain.RoomAmenity(fl.Field().String())]
	})
	return v
}
