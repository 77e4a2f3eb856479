package api

import (
	"time"

	"github.com/dmitrijs2005/passvault/internal/server/models"
	"github.com/dmitrijs2005/passvault/internal/server/services"
	"github.com/dmitrijs2005/passvault/internal/vault"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	Username *string `json:"username"`
	FullName *string `json:"full_name"`
	Password *string `json:"password"`
}

type unlockRequest struct {
	Secret   string `json:"secret" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type createEntryRequest struct {
	Title    string `json:"title" binding:"required"`
	Logo     string `json:"logo"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
	FACode   string `json:"fa_code"`
}

type updateEntryRequest struct {
	Title    *string `json:"title"`
	Logo     *string `json:"logo"`
	Email    *string `json:"email"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	FACode   *string `json:"fa_code"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Secret    string    `json:"secret"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type entryResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Logo      string    `json:"logo,omitempty"`
	Email     string    `json:"email,omitempty"`
	Username  string    `json:"username,omitempty"`
	Password  string    `json:"password"`
	FACode    string    `json:"fa_code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Error     string    `json:"error,omitempty"`
}

type userWithEntriesResponse struct {
	userResponse
	Passwords []entryResponse `json:"passwords"`
}

type codeResponse struct {
	Success              bool      `json:"success"`
	UserID               string    `json:"user_id"`
	Code                 string    `json:"code"`
	TimeRemainingSeconds int       `json:"time_remaining_seconds"`
	NextRequestInMs      int       `json:"next_request_in_ms"`
	GeneratedAt          time.Time `json:"generated_at"`
}

type logoUploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type logoResponse struct {
	URL string `json:"url"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Secret:    u.Secret,
		Email:     u.Email,
		Username:  u.Username,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt,
	}
}

func toEntryResponse(v vault.View) entryResponse {
	return entryResponse{
		ID:        v.ID,
		UserID:    v.UserID,
		Title:     v.Title,
		Logo:      v.Logo,
		Email:     v.Email,
		Username:  v.Username,
		Password:  v.Password,
		FACode:    v.TotpSeed,
		CreatedAt: v.CreatedAt,
	}
}

func (r createEntryRequest) draft() vault.Draft {
	return vault.Draft{
		Title:    r.Title,
		Logo:     r.Logo,
		Email:    r.Email,
		Username: r.Username,
		Password: r.Password,
		TotpSeed: r.FACode,
	}
}

func (r updateEntryRequest) patch() vault.Patch {
	return vault.Patch{
		Title:    r.Title,
		Logo:     r.Logo,
		Email:    r.Email,
		Username: r.Username,
		Password: r.Password,
		TotpSeed: r.FACode,
	}
}

func (r profileRequest) patch() services.UserPatch {
	return services.UserPatch{
		Username: r.Username,
		FullName: r.FullName,
		Password: r.Password,
	}
}
