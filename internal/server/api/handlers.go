package api

import (
	"net/http"

	"github.com/dmitrijs2005/passvault/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := s.users.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "Registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, toUserResponse(user))
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (s *Server) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := s.users.Update(c.Request.Context(), c.Query("secret"), req.patch())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// listEntries needs the master password as well as the secret, so it takes
// both in the body instead of going through requireSecret.
func (s *Server) listEntries(c *gin.Context) {
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := s.users.Unlock(ctx, req.Secret, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}

	items, err := s.entries.List(ctx, user.ID)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := userWithEntriesResponse{
		userResponse: toUserResponse(user),
		Passwords:    make([]entryResponse, 0, len(items)),
	}
	for _, it := range items {
		e := toEntryResponse(it.View)
		if it.Err != nil {
			_, e.Error = statusFor(it.Err)
		}
		resp.Passwords = append(resp.Passwords, e)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) createEntry(c *gin.Context) {
	var req createEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user := currentUser(c)
	v, err := s.entries.Create(c.Request.Context(), user.ID, req.draft())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toEntryResponse(v))
}

func (s *Server) getEntry(c *gin.Context) {
	v, err := s.entries.Get(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toEntryResponse(v))
}

func (s *Server) updateEntry(c *gin.Context) {
	var req updateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	v, err := s.entries.Update(c.Request.Context(), currentUser(c).ID, c.Param("id"), req.patch())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toEntryResponse(v))
}

func (s *Server) deleteEntry(c *gin.Context) {
	if err := s.entries.Delete(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// totpCode takes the secret from the path. An entry without a seed is not
// an error: the response reports success=false and code 0.
func (s *Server) totpCode(c *gin.Context) {
	ctx := c.Request.Context()

	user, err := s.users.Authenticate(ctx, c.Param("secret"))
	if err != nil {
		s.fail(c, err)
		return
	}

	code, ok, err := s.entries.Code(ctx, user.ID, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"success": false, "code": 0})
		return
	}

	c.JSON(http.StatusOK, codeResponse{
		Success:              true,
		UserID:               user.ID,
		Code:                 code.Value,
		TimeRemainingSeconds: code.SecondsRemaining,
		NextRequestInMs:      code.SecondsRemaining * 1000,
		GeneratedAt:          code.At,
	})
}

func (s *Server) logoUploadURL(c *gin.Context) {
	key, url, err := s.entries.LogoUploadURL(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, logoUploadResponse{Key: key, URL: url})
}

func (s *Server) logoURL(c *gin.Context) {
	url, err := s.entries.LogoURL(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, logoResponse{URL: url})
}
