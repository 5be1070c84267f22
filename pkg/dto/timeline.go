package dto

type TimelineQuery struct {
	Date   string `validate:"omitempty,datetime=2006-01-02" json:"date"`
	Filter string `validate:"omitempty,oneof=all mine" json:"filter"`
}

type PlacementResponse struct {
	Reservation ReservationResponse `json:"reservation"`
	Top         float64             `json:"top"`
	Height      float64             `json:"height"`
	Lane        int                 `json:"lane"`
}

type SpaceTimelineResponse struct {
	Space      SpaceResponse       `json:"space"`
	Lanes      int                 `json:"lanes"`
	Placements []PlacementResponse `json:"placements"`
}

type TimelineResponse struct {
	Date    string                  `json:"date"`
	Slots   []string                `json:"slots"`
	Columns []SpaceTimelineResponse `json:"columns"`
}
