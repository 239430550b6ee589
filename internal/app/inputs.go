package app

import (
	"time"

	"hotel_booking/internal/domain"
)

type RoomTypeInput struct {
	RoomAmenities   []domain.RoomAmenity `json:"roomAmenities" validate:"required,dive,amenity"`
	NameOfRoom      string               `json:"nameOfRoom" validate:"required"`
	RateDescription string               `json:"rateDescription" validate:"required"`
	Price           float64              `json:"price" validate:"required,min=1"`
	MealType        string               `json:"mealType"`
	TaxType         string               `json:"taxType"`
	Images          []string             `json:"images" validate:"required,min=1,dive,url"`
	NumberOfRoom    int                  `json:"numberOfRoom" validate:"required,min=1"`
}

type CreateHotelInput struct {
	HotelName    string              `json:"hotelName" validate:"required"`
	Address      string              `json:"address" validate:"required"`
	City         string              `json:"city" validate:"required"`
	Country      string              `json:"country" validate:"required"`
	ZipCode      int                 `json:"zipCode" validate:"required,min=999"`
	PropertyType domain.PropertyType `json:"propertyType" validate:"required,propertytype"`
	Star         float64             `json:"star" validate:"required,min=0.5,max=5"`
	Images       string              `json:"images" validate:"omitempty,url"`
	RoomTypes    []RoomTypeInput     `json:"roomTypes" validate:"required,min=1,dive"`
}

type HotelPatch struct {
	HotelName    *string              `json:"hotelName" validate:"omitempty,min=1"`
	Address      *string              `json:"address" validate:"omitempty,min=1"`
	City         *string              `json:"city" validate:"omitempty,min=1"`
	Country      *string              `json:"country" validate:"omitempty,min=1"`
	ZipCode      *int                 `json:"zipCode" validate:"omitempty,min=999"`
	PropertyType *domain.PropertyType `json:"propertyType" validate:"omitempty,propertytype"`
	Star         *float64             `json:"star" validate:"omitempty,min=0.5,max=5"`
	Images       *string              `json:"images" validate:"omitempty,url"`
	IsDelete     *bool                `json:"isDelete"`
}

type CreateRoomInput struct {
	IsCreateMulti bool            `json:"isCreateMulti"`
	RoomTypes     []RoomTypeInput `json:"roomTypes" validate:"required,min=1,dive"`
}

type RoomTypePatch struct {
	RoomAmenities   []domain.RoomAmenity `json:"roomAmenities" validate:"omitempty,dive,amenity"`
	NameOfRoom      *string              `json:"nameOfRoom" validate:"omitempty,min=1"`
	RateDescription *string              `json:"rateDescription" validate:"omitempty,min=1"`
	Price           *float64             `json:"price" validate:"omitempty,min=1"`
	MealType        *string              `json:"mealType"`
	TaxType         *string              `json:"taxType"`
	Images          []string             `json:"images" validate:"omitempty,dive,url"`
	NumberOfRoom    *int                 `json:"numberOfRoom" validate:"omitempty,min=1"`
}

type HotelFilter struct {
	HotelName    string              `validate:"omitempty"`
	Address      string              `validate:"omitempty"`
	City         string              `validate:"omitempty"`
	Country      string              `validate:"required_without=City"`
	ZipCode      int                 `validate:"omitempty,min=999"`
	PropertyType domain.PropertyType `validate:"omitempty,propertytype"`
	Star         float64             `validate:"omitempty,min=0.5,max=5"`
	CreatedAt    *time.Time          `validate:"excluded_with=CreatedAtGte CreatedAtLte"`
	CreatedAtGte *time.Time
	CreatedAtLte *time.Time
	Page         int `validate:"omitempty,min=1"`
	Limit        int `validate:"omitempty,min=1,max=45"`
}

type CreateReviewInput struct {
	HotelID    string   `json:"hotelId" validate:"required"`
	Context    string   `json:"context" validate:"required,min=1,max=500"`
	Images     []string `json:"images" validate:"omitempty,dive,url"`
	StarRating float64  `json:"starRating" validate:"omitempty,min=0.5,max=5"`
	ParentSlug string   `json:"parent_slug"`
}

type UpdateReviewInput struct {
	Context    string   `json:"context" validate:"required_unless=IsDelete true,max=500"`
	Images     []string `json:"images" validate:"omitempty,dive,url"`
	StarRating float64  `json:"starRating" validate:"omitempty,min=0.5,max=5"`
	IsDelete   bool     `json:"isDelete"`
}

type UserReviewsQuery struct {
	HotelID       string
	StatusBooking string `validate:"omitempty,oneof=STAY"`
	IsReview      bool
	ParentSlug    bool
	Page          int `validate:"omitempty,min=1"`
	Limit         int `validate:"omitempty,min=1,max=45"`
}

type ReviewsQuery struct {
	HotelID    string
	ParentSlug string
	Page       int `validate:"omitempty,min=1"`
	Limit      int `validate:"omitempty,min=1,max=45"`
}
