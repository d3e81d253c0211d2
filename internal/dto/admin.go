package dto

// LoginRequest is the admin login form.
type LoginRequest struct {
	Username string `form:"usuario" validate:"required,max=50"`
	Password string `form:"password" validate:"required,max=72"`
}

// StatusUpdateRequest changes the status of one request.
type StatusUpdateRequest struct {
	ID     int64  `form:"id" validate:"required,gt=0"`
	Status string `form:"estatus" validate:"required"`
}

// DeleteApplicationRequest removes one request.
type DeleteApplicationRequest struct {
	ID int64 `form:"id" validate:"required,gt=0"`
}

// StatusSummaryResponse is returned by the dashboard summary endpoint.
type StatusSummaryResponse struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}
