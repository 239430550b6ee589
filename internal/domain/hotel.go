package domain

import "time"

type Package string

const (
	PackageFree  Package = "FREE"
	PackageWeek  Package = "WEEK"
	PackageMonth Package = "MONTH"
	PackageYear  Package = "YEAR"
)

type PropertyType string

const (
	PropertyHotel     PropertyType = "HOTEL"
	PropertyApartment PropertyType = "APARTMENT"
	PropertyResort    PropertyType = "RESORT"
	PropertyVilla     PropertyType = "VILLA"
	PropertyHostel    PropertyType = "HOSTEL"
	PropertyHomestay  PropertyType = "HOMESTAY"
)

type RoomAmenity string

const (
	AmenityWifi      RoomAmenity = "WIFI"
	AmenityAirCon    RoomAmenity = "AIR_CONDITIONING"
	AmenityTV        RoomAmenity = "TV"
	AmenityMinibar   RoomAmenity = "MINIBAR"
	AmenityBalcony   RoomAmenity = "BALCONY"
	AmenityBathtub   RoomAmenity = "BATHTUB"
	AmenityKitchen   RoomAmenity = "KITCHEN"
	AmenitySafe      RoomAmenity = "SAFE"
	AmenityBreakfast RoomAmenity = "BREAKFAST"
	AmenityParking   RoomAmenity = "FREE_PARKING"
)

type Hotel struct {
	ID           string       `json:"_id"`
	UserID       string       `json:"userId"`
	HotelName    string       `json:"hotelName"`
	Address      string       `json:"address"`
	City         string       `json:"city"`
	Country      string       `json:"country"`
	ZipCode      int          `json:"zipCode"`
	PropertyType PropertyType `json:"propertyType"`
	Star         float64      `json:"star"`
	Images       string       `json:"images,omitempty"`
	StarRating   StarRating   `json:"starRating"`
	RoomTypeIDs  []string     `json:"roomTypeIds"`
	Package      Package      `json:"package"`
	IsDelete     bool         `json:"isDelete"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// StarRating is the running mean of the filled root reviews of a hotel.
type StarRating struct {
	CountReview int     `json:"countReview"`
	StarAverage float64 `json:"starAverage"`
}

func (s StarRating) Add(rating float64) StarRating {
	return StarRating{
		CountReview: s.CountReview + 1,
		StarAverage: (s.StarAverage*float64(s.CountReview) + rating) / float64(s.CountReview+1),
	}
}

func (s StarRating) Replace(old, rating float64) StarRating {
	if s.CountReview == 0 {
		return s
	}
	return StarRating{
		CountReview: s.CountReview,
		StarAverage: (s.StarAverage*float64(s.CountReview) - old + rating) / float64(s.CountReview),
	}
}

func (s StarRating) Remove(rating float64) StarRating {
	if s.CountReview <= 1 {
		return StarRating{}
	}
	return StarRating{
		CountReview: s.CountReview - 1,
		StarAverage: (s.StarAverage*float64(s.CountReview) - rating) / float64(s.CountReview-1),
	}
}

type RoomType struct {
	ID              string        `json:"_id"`
	RoomAmenities   []RoomAmenity `json:"roomAmenities"`
	NameOfRoom      string        `json:"nameOfRoom"`
	RateDescription string        `json:"rateDescription"`
	Price           float64       `json:"price"`
	MealType        string        `json:"mealType,omitempty"`
	TaxType         string        `json:"taxType,omitempty"`
	Images          []string      `json:"images"`
	NumberOfRoom    int           `json:"numberOfRoom"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// HotelSummary is what hotel creation hands back to the owner.
type HotelSummary struct {
	ID        string  `json:"_id"`
	HotelName string  `json:"hotelName"`
	Images    string  `json:"images,omitempty"`
	Address   string  `json:"address"`
	Package   Package `json:"package"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
}

type HotelDetail struct {
	Hotel
	RoomTypes []RoomType `json:"roomTypes"`
}
