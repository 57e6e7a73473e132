package identity

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/pocketbook/pocketbook/internal/blob"
	"github.com/pocketbook/pocketbook/internal/docstore"
)

// Handler exposes the profile endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a profile HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// ownerID reads the owner resolved by the auth middleware. The handler
// cannot import the middleware package (it already depends on this one for
// token verification), so the locals key is read directly.
func ownerID(c *fiber.Ctx) string {
	owner, _ := c.Locals("owner_id").(string)
	return owner
}

// Me returns the authenticated owner's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	user, err := h.service.Get(c.UserContext(), ownerID(c))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "user not found")
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusOK).JSON(userResponse{ID: user.ID, Name: user.Name, Email: user.Email, Icon: user.IconRef})
}

type updateProfileRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// UpdateMe rewrites the authenticated owner's profile fields.
func (h *Handler) UpdateMe(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.UpdateProfile(c.UserContext(), ownerID(c), UpdateProfileInput{Name: req.Name, Icon: req.Icon})
	if err != nil {
		if errors.Is(err, blob.ErrUploadFailed) {
			return fiber.NewError(http.StatusBadGateway, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusOK).JSON(userResponse{ID: user.ID, Name: user.Name, Email: user.Email, Icon: user.IconRef})
}
