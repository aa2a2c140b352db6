// Package server contains HTTP and WebSocket handlers for the MindBridge API.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mindbridge/internal/models"
	"mindbridge/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const defaultGoogleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a new user account and set the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string} true "Signup request"
// @Success 201 {object} object{user=models.User}
// @Failure 400 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username, email, and password are required"))
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	existing, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if existing != nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("User already exists", nil))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
	}

	if createErr := s.userRepo.Create(c.Context(), user); createErr != nil {
		return respondAppError(c, createErr)
	}

	if err := s.issueSession(c, user); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user": user,
	})
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate a user and set the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} object{user=models.User}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	// Google-provisioned accounts have no password until setup completes.
	if user == nil || !user.HasPassword() {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); cmpErr != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	if err := s.issueSession(c, user); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	_ = s.userRepo.TouchLastActive(c.Context(), user.ID)

	return c.JSON(fiber.Map{
		"user": user,
	})
}

// googleTokenInfo is the subset of the provider's tokeninfo response we use.
type googleTokenInfo struct {
	Sub           string `json:"sub"`
	Aud           string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleLogin handles POST /api/auth/google
// @Summary Google sign-in
// @Description Verify a Google ID token and establish a session, creating or linking the account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{credential=string} true "Google ID token"
// @Success 200 {object} object{user=models.User}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Router /auth/google [post]
func (s *Server) GoogleLogin(c *fiber.Ctx) error {
	var req struct {
		Credential string `json:"credential"`
	}
	if err := c.BodyParser(&req); err != nil || req.Credential == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Google credential is required"))
	}

	info, err := s.verifyGoogleToken(req.Credential)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid Google credential"))
	}
	if s.config.GoogleClientID == "" || info.Aud != s.config.GoogleClientID {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Google credential issued for another application"))
	}

	user, err := s.userRepo.GetByGoogleID(c.Context(), info.Sub)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	switch {
	case user != nil:
		// Returning Google user; refresh the email if it changed upstream.
		if info.Email != "" && user.Email != info.Email {
			user.Email = info.Email
			if uerr := s.userRepo.Update(c.Context(), user); uerr != nil {
				return respondAppError(c, uerr)
			}
		}
	default:
		// Adopt an existing local account with the same email, or create one.
		user, err = s.userRepo.GetByEmail(c.Context(), info.Email)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		googleID := info.Sub
		if user != nil {
			user.GoogleID = &googleID
			if user.Avatar == "" {
				user.Avatar = info.Picture
			}
			if uerr := s.userRepo.Update(c.Context(), user); uerr != nil {
				return respondAppError(c, uerr)
			}
		} else {
			user = &models.User{
				Username: googleUsername(info),
				Email:    info.Email,
				GoogleID: &googleID,
				Avatar:   info.Picture,
			}
			if cerr := s.userRepo.Create(c.Context(), user); cerr != nil {
				return respondAppError(c, cerr)
			}
		}
	}

	if err := s.issueSession(c, user); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	_ = s.userRepo.TouchLastActive(c.Context(), user.ID)

	return c.JSON(fiber.Map{
		"user": user,
	})
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Clear the session cookie
// @Tags auth
// @Success 200 {object} object{message=string}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	s.clearAuthCookie(c)
	return c.JSON(fiber.Map{
		"message": "Logged out",
	})
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Description Return the authenticated user's profile
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} object{error=string}
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.userRepo.GetByID(c.Context(), currentUserID(c))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(user)
}

// verifyGoogleToken asks the provider's tokeninfo endpoint to validate the
// ID token. An invalid token yields a non-200 response.
func (s *Server) verifyGoogleToken(credential string) (*googleTokenInfo, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(s.googleTokenInfoURL + "?id_token=" + url.QueryEscape(credential))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tokeninfo returned status %d", resp.StatusCode)
	}

	var info googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("tokeninfo response missing subject")
	}
	return &info, nil
}

// googleUsername derives a locally unique-enough username for a fresh
// Google account. Uniqueness is enforced by the users table; a collision
// surfaces as a conflict the client can retry through profile setup.
func googleUsername(info *googleTokenInfo) string {
	base := info.Name
	if base == "" {
		base = info.Email
	}
	return fmt.Sprintf("%s_%s", base, info.Sub[:min(8, len(info.Sub))])
}

// issueSession generates a JWT for the user and sets it as the session cookie.
func (s *Server) issueSession(c *fiber.Ctx, user *models.User) error {
	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return err
	}
	s.setAuthCookie(c, token)
	return nil
}

func (s *Server) setAuthCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(sessionTTL),
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: "Lax",
		Path:     "/",
	})
}

func (s *Server) clearAuthCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: "Lax",
		Path:     "/",
	})
}

// sessionTTL is how long a session token stays valid.
const sessionTTL = 7 * 24 * time.Hour

// generateToken creates a JWT token for the given user ID and username
func (s *Server) generateToken(userID uint, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10), // Subject (user ID as string)
		"username": username,                               // Username (cached in token)
		"iss":      "mindbridge-api",                       // Issuer
		"aud":      "mindbridge-client",                    // Audience
		"exp":      now.Add(sessionTTL).Unix(),             // Expiration (7 days)
		"iat":      now.Unix(),                             // Issued at
		"nbf":      now.Unix(),                             // Not before
		"jti":      s.generateJTI(),                        // JWT ID (unique identifier)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
