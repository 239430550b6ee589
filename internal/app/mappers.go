package app

import (
	"time"

	"hotel_booking/internal/domain"
)

func newRoomTypes(in []RoomTypeInput) []*domain.RoomType {
	out := make([]*domain.RoomType, 0, len(in))
	for _, r := range in {
		images := r.Images
		if images == nil {
			images = []string{}
		}
		out = append(out, &domain.RoomType{
			RoomAmenities:   r.RoomAmenities,
			NameOfRoom:      r.NameOfRoom,
			RateDescription: r.RateDescription,
			Price:           r.Price,
			MealType:        r.MealType,
			TaxType:         r.TaxType,
			Images:          images,
			NumberOfRoom:    r.NumberOfRoom,
		})
	}
	return out
}

func roomTypeIDs(rooms []*domain.RoomType) []string {
	ids := make([]string, len(rooms))
	for i, r := range rooms {
		ids[i] = r.ID
	}
	return ids
}

func derefRooms(rooms []*domain.RoomType) []domain.RoomType {
	out := make([]domain.RoomType, len(rooms))
	for i, r := range rooms {
		out[i] = *r
	}
	return out
}

func summarize(h *domain.Hotel) domain.HotelSummary {
	return domain.HotelSummary{
		ID:        h.ID,
		HotelName: h.HotelName,
		Images:    h.Images,
		Address:   h.Address,
		Package:   h.Package,
		City:      h.City,
		Country:   h.Country,
	}
}

// fields returns the $set document for a hotel patch; isDelete is handled separately.
func (p HotelPatch) fields() map[string]any {
	m := map[string]any{}
	if p.HotelName != nil {
		m["hotelName"] = *p.HotelName
	}
	if p.Address != nil {
		m["address"] = *p.Address
	}
	if p.City != nil {
		m["city"] = *p.City
	}
	if p.Country != nil {
		m["country"] = *p.Country
	}
	if p.ZipCode != nil {
		m["zipCode"] = *p.ZipCode
	}
	if p.PropertyType != nil {
		m["propertyType"] = *p.PropertyType
	}
	if p.Star != nil {
		m["star"] = *p.Star
	}
	if p.Images != nil {
		m["images"] = *p.Images
	}
	return m
}

func (p RoomTypePatch) fields() map[string]any {
	m := map[string]any{}
	if p.RoomAmenities != nil {
		m["roomAmenities"] = p.RoomAmenities
	}
	if p.NameOfRoom != nil {
		m["nameOfRoom"] = *p.NameOfRoom
	}
	if p.RateDescription != nil {
		m["rateDescription"] = *p.RateDescription
	}
	if p.Price != nil {
		m["price"] = *p.Price
	}
	if p.MealType != nil {
		m["mealType"] = *p.MealType
	}
	if p.TaxType != nil {
		m["taxType"] = *p.TaxType
	}
	if p.Images != nil {
		m["images"] = p.Images
	}
	if p.NumberOfRoom != nil {
		m["numberOfRoom"] = *p.NumberOfRoom
	}
	return m
}

// filter turns listing parameters into a store filter over public hotels.
func (f HotelFilter) filter() domain.Filter {
	out := domain.Where(
		domain.Eq("isDelete", false),
		domain.Ne("package", domain.PackageFree),
	)
	if f.HotelName != "" {
		out = out.And(domain.Eq("hotelName", f.HotelName))
	}
	if f.Address != "" {
		out = out.And(domain.Eq("address", f.Address))
	}
	if f.City != "" {
		out = out.And(domain.Eq("city", f.City))
	}
	if f.Country != "" {
		out = out.And(domain.Eq("country", f.Country))
	}
	if f.ZipCode != 0 {
		out = out.And(domain.Eq("zipCode", f.ZipCode))
	}
	if f.PropertyType != "" {
		out = out.And(domain.Eq("propertyType", f.PropertyType))
	}
	if f.Star != 0 {
		out = out.And(domain.Eq("star", f.Star))
	}
	if f.CreatedAt != nil {
		day := f.CreatedAt.UTC().Truncate(24 * time.Hour)
		out = out.And(
			domain.Gte("createdAt", day),
			domain.Lte("createdAt", day.Add(24*time.Hour-time.Nanosecond)),
		)
	}
	if f.CreatedAtGte != nil {
		out = out.And(domain.Gte("createdAt", f.CreatedAtGte.UTC()))
	}
	if f.CreatedAtLte != nil {
		out = out.And(domain.Lte("createdAt", f.CreatedAtLte.UTC()))
	}
	return out
}

func pageOf(page, limit, defLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defLimit
	}
	return page, limit
}
