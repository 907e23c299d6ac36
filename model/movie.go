package model

type Movie struct {
	Id          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Duration    int    `json:"duration"`
	Rating      string `json:"rating"`
}
