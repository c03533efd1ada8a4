package admin

type SuspendRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type ListQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}
