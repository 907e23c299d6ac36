package model

type Theater struct {
	Id              int              `json:"id"`
	Name            string           `json:"name"`
	Address         string           `json:"address"`
	ProjectionRooms []ProjectionRoom `json:"projectionRooms"`
	ShowTimes       []Showtime       `json:"showTimes"`
}

type ProjectionRoom struct {
	Id        int    `json:"id"`
	Number    int    `json:"number"`
	TheaterId int    `json:"theaterId"`
	Name      string `json:"name"`
}

type Showtime struct {
	Id             int            `json:"id"`
	StartTime      LocalTime      `json:"startTime"`
	MovieId        int            `json:"movieId"`
	TheaterId      int            `json:"theaterId"`
	ProjectionRoom ProjectionRoom `json:"projectionRoom"`
	RoomName       string         `json:"roomName"`
}
