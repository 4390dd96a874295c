package handler

import (
	"github.com/stylelab/platform/internal/core/domain"
	"github.com/stylelab/platform/internal/core/ports"
)

// --- Request → Service input ---

func toRegisterInput(req registerRequest) ports.RegisterInput {
	return ports.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		ReferredCode: req.ReferredCode,
	}
}

func toUpdateProfileInput(req updateProfileRequest) ports.UpdateProfileInput {
	return ports.UpdateProfileInput{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		ProfileImage:     req.ProfileImage,
		UserLevel:        req.UserLevel,
		PreferredStyles:  req.PreferredStyles,
		ExperienceLevels: req.ExperienceLevels,
		IsFirstLogin:     req.IsFirstLogin,
	}
}

// --- Service output → Response ---

func toAuthResponse(s *ports.Session) authResponse {
	return authResponse{AccessToken: s.Token, User: s.User.Public()}
}

func toListResponse(r *ports.ListUsersResult) listUsersResponse {
	items := r.Items
	if items == nil {
		items = []domain.PublicUser{}
	}
	return listUsersResponse{
		Data: items,
		Pagination: paginationResponse{
			Total:      r.Total,
			Page:       r.Page,
			Limit:      r.Limit,
			TotalPages: r.TotalPages,
		},
	}
}
