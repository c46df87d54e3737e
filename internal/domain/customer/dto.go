// internal/domain/customer/dto.go
package customer

type ListFilters struct {
	AgentID  *int64  `form:"-"`
	Status   *Status `form:"status"`
	Search   string  `form:"search"` // name, email, phone or reference
	Page     int     `form:"page"`
	PageSize int     `form:"page_size" binding:"omitempty,max=100"`
}

type ListResponse struct {
	Customers  []Customer `json:"customers"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}
