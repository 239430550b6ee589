// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
)

type Handlers struct {
	Hotels   *app.HotelService
	Reviews  *app.ReviewService
	Users    domain.Collection[domain.User]
	Validate *validator.Validate

	// token cookies set when hotel creation promotes the caller
	CookieSecure bool
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

type envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (s *Server) MountHandlers(h *Handlers) {
	auth := Identity(h.Users)

	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Get("/v1/hotels", h.getHotels)
	s.mux.Get("/v1/hotels/{id}", h.detailHotel)
	s.mux.With(auth).Post("/v1/hotels", h.createHotel)
	s.mux.With(auth).Patch("/v1/hotels/{id}", h.updateHotel)
	s.mux.With(auth).Post("/v1/hotels/{id}/rooms", h.createRoom)
	s.mux.With(auth).Patch("/v1/rooms/{id}", h.updateRoomType)

	s.mux.Get("/v1/reviews", h.getReviews)
	s.mux.With(auth).Get("/v1/reviews/me", h.getReviewsByUser)
	s.mux.With(auth).Post("/v1/reviews/{id}", h.createReview)
	s.mux.With(auth).Patch("/v1/reviews/{id}", h.updateReview)
}

// ---- response helpers ----

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeData(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, envelope{Message: msg, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Message: msg, Status: status})
}

// writeError maps domain errors to their status; anything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		writeMessage(w, http.StatusBadRequest, validationMessage(verrs))
		return
	}
	if de, ok := domain.AsError(err); ok {
		if de.Kind == domain.KindServiceUnavailable {
			log.Error().Err(err).Msg("request failed")
		}
		writeMessage(w, de.Status(), de.Message)
		return
	}
	log.Error().Err(err).Msg("unhandled error")
	writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
}

func validationMessage(verrs validator.ValidationErrors) string {
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed on %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag())
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func (h *Handlers) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.BadRequest("Invalid request body")
	}
	return h.Validate.Struct(dst)
}

func mustCaller(w http.ResponseWriter, r *http.Request) (app.Caller, bool) {
	c, ok := callerFrom(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Invalid request")
	}
	return c, ok
}

func (h *Handlers) setTokenCookies(w http.ResponseWriter, t *domain.TokenPair) {
	for _, c := range []struct {
		name, value string
		ttl         time.Duration
	}{
		{"accessToken", t.AccessToken, h.AccessTTL},
		{"refreshToken", t.RefreshToken, h.RefreshTTL},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    c.value,
			Path:     "/",
			MaxAge:   int(c.ttl.Seconds()),
			HttpOnly: true,
			Secure:   h.CookieSecure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// ---- query parsing ----

// query collects the first parse error so handlers check once.
type query struct {
	vals url.Values
	err  error
}

func newQuery(r *http.Request) *query { return &query{vals: r.URL.Query()} }

func (q *query) str(k string) string { return strings.TrimSpace(q.vals.Get(k)) }

func (q *query) num(k string) int {
	s := q.str(k)
	if s == "" || q.err != nil {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		q.err = domain.BadRequest(k + " must be an integer")
	}
	return n
}

func (q *query) decimal(k string) float64 {
	s := q.str(k)
	if s == "" || q.err != nil {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		q.err = domain.BadRequest(k + " must be a number")
	}
	return f
}

func (q *query) flag(k string) bool {
	s := q.str(k)
	if s == "" || q.err != nil {
		return false
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		q.err = domain.BadRequest(k + " must be true or false")
	}
	return b
}

// date accepts a date (2006-01-02) or an RFC 3339 timestamp.
func (q *query) date(k string) *time.Time {
	s := q.str(k)
	if s == "" || q.err != nil {
		return nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	q.err = domain.BadRequest(k + " must be a date")
	return nil
}

// ---- hotels ----

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	c, ok := mustCaller(w, r)
	if !ok {
		return
	}
	var in app.CreateHotelInput
	if err := h.decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.Hotels.CreateHotel(r.Context(), c, in)
	if err != nil {
		writeError(w, err)
		return
	}
	if res.Tokens != nil {
		h.setTokenCookies(w, res.Tokens)
	}
	writeData(w, http.StatusCreated, "Create new hotel success", res.Hotel)
}

func (h *Handlers) getHotels(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := app.HotelFilter{
		HotelName:    q.str("hotelName"),
		Address:      q.str("address"),
		City:         q.str("city"),
		Country:      q.str("country"),
		ZipCode:      q.num("zipCode"),
		PropertyType: domain.PropertyType(q.str("propertyType")),
		Star:         q.decimal("star"),
		CreatedAt:    q.date("createdAt"),
		CreatedAtGte: q.date("createdAt_gte"),
		CreatedAtLte: q.date("createdAt_lte"),
		Page:         q.num("page"),
		Limit:        q.num("limit"),
	}
	if q.err != nil {
		writeError(w, q.err)
		return
	}
	if err := h.Validate.Struct(f); err != nil {
		writeError(w, err)
		return
	}
	hotels, err := h.Hotels.GetHotels(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "Get hotels success", hotels)
}

func (h *Handlers) detailHotel(w http.ResponseWriter, r *http.Request) {
	hd, err := h.Hotels.DetailHotel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	etag, body := calcETagAndBody(envelope{Message: "Get detail hotel success", Data: hd})
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write detailHotel body")
	}
}

func (h *Handlers) updateHotel(w http.ResponseWriter, r *http.Request) {
	c, ok := mustCaller(w, r)
	if !ok {
		return
	}
	var p app.HotelPatch
	if err := h.decode(r, &p); err != nil {
		writeError(w, err)
		return
	}
	hotel, err := h.Hotels.UpdateHotel(r.Context(), c.UserID, chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "Update hotel success", hotel)
}

func (h *Handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	c, ok := mustCaller(w, r)
	if !ok {
		return
	}
	var in app.CreateRoomInput
	if err := h.decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	rooms, err := h.Hotels.CreateRoom(r.Context(), c.UserID, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "Create room success", rooms)
}

func (h *Handlers) updateRoomType(w http.ResponseWriter, r *http.Request) {
	if _, ok := mustCaller(w, r); !ok {
		return
	}
	var p app.RoomTypePatch
	if err := h.decode(r, &p); err != nil {
		writeError(w, err)
		return
	}
	room, err := h.Hotels.UpdateRoomType(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "Update room success", room)
}

// ---- reviews ----

func (h *Handlers) createReview(w http.ResponseWriter, r *http.Request) {
	c, ok := mustCaller(w, r)
	if !ok {
		return
	}
	var in app.CreateReviewInput
	if err := h.decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	review, err := h.Reviews.CreateReview(r.Context(), c, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "Create review success", review)
}

func (h *Handlers) updateReview(w http.ResponseWriter, r *http.Request) {
	c, ok := mustCaller(w, r)
	if !ok {
		return
	}
	var in app.UpdateReviewInput
	if err := h.decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	review, err := h.Reviews.UpdateReview(r.Context(), c, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "Update review success", review)
}

func (h *Handlers) getReviewsByUser(w http.ResponseWriter, r *http.Request) {
	c, ok := mustCaller(w, r)
	if !ok {
		return
	}
	q := newQuery(r)
	in := app.UserReviewsQuery{
		HotelID:       q.str("hotelId"),
		StatusBooking: q.str("statusBooking"),
		IsReview:      q.flag("isReview"),
		ParentSlug:    q.flag("parent_slug"),
		Page:          q.num("page"),
		Limit:         q.num("limit"),
	}
	if q.err != nil {
		writeError(w, q.err)
		return
	}
	if err := h.Validate.Struct(in); err != nil {
		writeError(w, err)
		return
	}
	reviews, err := h.Reviews.GetReviewsByUser(r.Context(), c, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "Get reviews success", reviews)
}

func (h *Handlers) getReviews(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	in := app.ReviewsQuery{
		HotelID:    q.str("hotelId"),
		ParentSlug: q.str("parent_slug"),
		Page:       q.num("page"),
		Limit:      q.num("limit"),
	}
	if q.err != nil {
		writeError(w, q.err)
		return
	}
	if err := h.Validate.Struct(in); err != nil {
		writeError(w, err)
		return
	}
	reviews, err := h.Reviews.GetReviews(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "Get reviews success", reviews)
}
