package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/user-directory/internal/dto"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/query"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/services"
)

type UserHandler struct {
	userService *services.UserService
	debug       bool
}

func NewUserHandler(userService *services.UserService, debug bool) *UserHandler {
	return &UserHandler{userService: userService, debug: debug}
}

// List serves GET /users/all.
func (h *UserHandler) List(c *fiber.Ctx) error {
	page, err := h.userService.List(c.UserContext(), query.Params{
		Page:   c.Query("page"),
		Limit:  c.Query("limit"),
		SortBy: c.Query("sortBy"),
		Order:  c.Query("order"),
		Gender: c.Query("gender"),
		Search: c.Query("search"),
	})
	if err != nil {
		return h.fail(c, err, "")
	}

	return c.JSON(dto.OK("Successfully received all users", dto.UserListData{
		Users:      page.Users,
		Total:      page.Total,
		Page:       page.Page.Page,
		Limit:      page.Page.Limit,
		TotalPages: page.TotalPages,
	}))
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.Fail("Could not find user"))
	}

	user, err := h.userService.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, "Could not find user")
	}
	return c.JSON(dto.OK(fmt.Sprintf("Successfully received user with id: %d", id), user))
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req dto.UserInput
	if !bindInput(c, &req) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid request body"))
	}

	user, err := h.userService.Create(c.UserContext(), &req)
	if err != nil {
		return h.fail(c, err, "")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK("User created successfully", user))
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.Fail("User not found"))
	}

	var req dto.UserInput
	if !bindInput(c, &req) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid request body"))
	}

	user, err := h.userService.Update(c.UserContext(), id, &req)
	if err != nil {
		return h.fail(c, err, "User not found")
	}
	return c.JSON(dto.OK("User updated successfully", user))
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.Fail("User not found"))
	}

	if err := h.userService.Delete(c.UserContext(), id); err != nil {
		return h.fail(c, err, "User not found")
	}
	return c.JSON(dto.OK("User deleted successfully", nil))
}

func (h *UserHandler) fail(c *fiber.Ctx, err error, notFoundMessage string) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.Response{
			Success: false,
			Message: "Validation failed",
			Errors:  verr.Errors,
		})
	case errors.Is(err, query.ErrInvalidPage), errors.Is(err, query.ErrInvalidLimit):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.Fail(err.Error()))
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.Fail(notFoundMessage))
	case errors.Is(err, services.ErrEmailTaken):
		return c.Status(fiber.StatusConflict).JSON(dto.Fail("Email already exists"))
	}
	return InternalError(c, err, h.debug)
}

// bindInput decodes a JSON body into req. A missing body or one sent without a
// JSON content type leaves req empty, so field validation reports what is
// missing. Only malformed JSON fails.
func bindInput(c *fiber.Ctx, req *dto.UserInput) bool {
	if len(c.Body()) == 0 || !c.Is("json") {
		return true
	}
	return c.BodyParser(req) == nil
}

// userID parses :id. Anything that is not a positive integer cannot name a
// stored user.
func userID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
