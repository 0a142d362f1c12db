package main

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/interleads/travelagency-system-sub001/models"
)

// adminUserData is the payload of one admin user-management action.
type adminUserData struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
	Active   *bool  `json:"active"`
}

// adminUsersHandler multiplexes privileged create/update/delete/toggle-status
// of user accounts. The caller's role is checked against the stored profile,
// not just the token claim; non-admins get a distinct 403 before any write.
func adminUsersHandler(c *gin.Context) {
	caller, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	if !isAdministrador(caller) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req struct {
		Action string        `json:"action" binding:"required"`
		Data   adminUserData `json:"data"`
		UserID uint          `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Action {
	case "create":
		adminCreateUser(c, req.Data)
	case "update":
		adminUpdateUser(c, req.UserID, req.Data)
	case "delete":
		adminDeleteUser(c, req.UserID)
	case "toggle-status":
		adminToggleStatus(c, req.UserID, req.Data)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action"})
	}
}

func isAdministrador(user *models.User) bool {
	if user.RoleID == nil {
		return false
	}
	var role models.Role
	if err := db.First(&role, *user.RoleID).Error; err != nil {
		return false
	}
	return role.Name == models.RoleAdministrador
}

func adminCreateUser(c *gin.Context, data adminUserData) {
	if strings.TrimSpace(data.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	user, err := RegisterUser(data.Email, data.Password, data.Role)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// insert-or-update the profile keyed by the new user id
	profile := models.Profile{UserID: user.ID}
	if err := db.Where("user_id = ?", user.ID).FirstOrCreate(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create profile", "details": err.Error()})
		return
	}
	profile.Name = data.Name
	profile.Email = user.Email
	profile.Phone = data.Phone
	profile.Active = true
	if err := db.Save(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, profile)
}

func adminUpdateUser(c *gin.Context, userID uint, data adminUserData) {
	if userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	var profile models.Profile
	if err := db.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	if data.Name != "" {
		profile.Name = data.Name
	}
	if data.Phone != "" {
		profile.Phone = data.Phone
	}
	email := strings.ToLower(strings.TrimSpace(data.Email))
	if email != "" {
		profile.Email = email
	}
	if err := db.Save(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile", "details": err.Error()})
		return
	}

	// Credential-side updates follow the profile write; a failure here means
	// the profile changed but the account did not, and is surfaced as such.
	if data.Password != "" {
		if len(data.Password) < 6 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password too short (min 6)"})
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(data.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
			return
		}
		user.HashedPassword = hashed
	}
	if email != "" {
		user.Email = email
	}
	if data.Role != "" {
		role, err := ensureRole(data.Role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve role"})
			return
		}
		rid := role.ID
		user.RoleID = &rid
	}
	if err := db.Save(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile updated but account update failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func adminDeleteUser(c *gin.Context, userID uint) {
	if userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	// sessions have no FK, clean them up explicitly
	if err := db.Where("user_id = ?", user.ID).Delete(&models.RefreshToken{}).Error; err != nil {
		log.Printf("cleanup warning (refresh tokens for user %d): %v", user.ID, err)
	}
	// hard delete; the profile row goes with it via the FK cascade
	if err := db.Unscoped().Delete(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func adminToggleStatus(c *gin.Context, userID uint, data adminUserData) {
	if userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	var profile models.Profile
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if data.Active != nil {
		profile.Active = *data.Active
	} else {
		profile.Active = !profile.Active
	}
	if err := db.Model(&profile).Update("active", profile.Active).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, profile)
}
