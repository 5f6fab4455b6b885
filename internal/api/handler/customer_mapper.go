package handler

import (
	"time"

	"github.com/99minutos/customer-api/internal/core/domain"
	"github.com/99minutos/customer-api/internal/core/ports"
)

// expiresAtLayout renders token expiry as a UTC timestamp without fraction.
const expiresAtLayout = "2006-01-02T15:04:05Z"

func toCreateInput(req createCustomerRequest) (ports.CreateCustomerInput, error) {
	birth, err := domain.ParseDate(req.BirthDate)
	if err != nil {
		return ports.CreateCustomerInput{}, err
	}
	return ports.CreateCustomerInput{
		Name:       req.Name,
		NationalID: req.NationalID,
		Email:      req.Email,
		BirthDate:  birth,
		Phone:      req.Phone,
		Password:   req.Password,
	}, nil
}

func toUpdateInput(req updateCustomerRequest) (ports.UpdateCustomerInput, error) {
	birth, err := domain.ParseDate(req.BirthDate)
	if err != nil {
		return ports.UpdateCustomerInput{}, err
	}
	return ports.UpdateCustomerInput{
		Name:      req.Name,
		Email:     req.Email,
		BirthDate: birth,
		Phone:     req.Phone,
		Password:  req.Password,
	}, nil
}

func toCustomerResponse(c *domain.Customer, now time.Time) customerResponse {
	return customerResponse{
		ID:         c.ID,
		Name:       c.Name,
		NationalID: c.NationalID,
		Email:      c.Email,
		BirthDate:  c.BirthDate.Format(domain.DateLayout),
		Age:        c.Age(now),
		Phone:      c.Phone,
	}
}

func toListResponse(page *ports.CustomerPage, now time.Time) listCustomersResponse {
	data := make([]customerResponse, 0, len(page.Customers))
	for _, c := range page.Customers {
		data = append(data, toCustomerResponse(c, now))
	}
	return listCustomersResponse{
		Data: data,
		Pagination: paginationResponse{
			Total:      page.Total,
			Page:       page.Page,
			Size:       page.Size,
			TotalPages: page.TotalPages,
		},
	}
}

func toLoginResponse(res *domain.LoginResult) loginResponse {
	return loginResponse{
		Token:     res.Token,
		Roles:     res.Roles,
		ExpiresAt: res.ExpiresAt.UTC().Format(expiresAtLayout),
		ID:        res.CustomerID,
	}
}
