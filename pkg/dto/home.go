package dto

type HomeQuery struct {
	Date string `validate:"omitempty,datetime=2006-01-02" json:"date"`
	At   string `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00" json:"at"`
}

type HomeSpace struct {
	Space  SpaceResponse        `json:"space"`
	Status AvailabilityResponse `json:"status"`
}

type HomeResponse struct {
	Spaces   []HomeSpace           `json:"spaces"`
	Timeline TimelineResponse      `json:"timeline"`
	Upcoming []ReservationResponse `json:"upcoming"`
	Pending  []ReservationResponse `json:"pending"`
}
