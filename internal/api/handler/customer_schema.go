package handler

// --- Request / Response types ---

type createCustomerRequest struct {
	Name       string `json:"name"        validate:"required,min=2,max=100"`
	NationalID string `json:"national_id" validate:"required,nationalid"`
	Email      string `json:"email"       validate:"required,email,max=100"`
	BirthDate  string `json:"birth_date"  validate:"required,pastdate"`
	Phone      string `json:"phone"       validate:"required,digits,min=10,max=11"`
	Password   string `json:"password"    validate:"required,min=8,max=20,password"`
}

type updateCustomerRequest struct {
	Name      string `json:"name"       validate:"required,min=2,max=100"`
	Email     string `json:"email"      validate:"required,email,max=100"`
	BirthDate string `json:"birth_date" validate:"required,pastdate"`
	Phone     string `json:"phone"      validate:"required,digits,min=10,max=11"`
	Password  string `json:"password"   validate:"required,min=8,max=20,password"`
}

type customerResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
	Email      string `json:"email"`
	BirthDate  string `json:"birth_date"`
	Age        int    `json:"age"`
	Phone      string `json:"phone"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalPages int   `json:"total_pages"`
}

type listCustomersResponse struct {
	Data       []customerResponse `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string   `json:"token"`
	Roles     []string `json:"roles"`
	ExpiresAt string   `json:"expires_at"`
	ID        int64    `json:"id"`
}
