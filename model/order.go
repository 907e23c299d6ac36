package model

// OrderPayload is the single atomic order submission. The backend either
// reserves every listed seat or rejects the whole order; the client performs
// no optimistic locking. Reference is a client-generated id so a resubmission
// after a failure can be correlated server-side.
type OrderPayload struct {
	Reference        string   `json:"reference"`
	MovieId          int      `json:"movieId"`
	MovieName        string   `json:"movieName"`
	TheaterId        int      `json:"theaterId"`
	TheaterName      string   `json:"theaterName"`
	ProjectionRoomId int      `json:"projectionRoomId"`
	RoomName         string   `json:"roomName"`
	Showtime         string   `json:"showtime"`
	Seats            []string `json:"seats"`
	CustomerName     string   `json:"customerName"`
	PhoneNumber      string   `json:"phoneNumber"`
	Email            string   `json:"email"`
}

type OrderResult struct {
	OrderId int `json:"orderId"`
}
