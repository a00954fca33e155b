package api

import (
	"strings"

	"backend_extintores/models"
	"backend_extintores/services"

	"github.com/gin-gonic/gin"
)

type CreateUserRequest struct {
	Name     string `json:"nombre" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=150"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"rol" binding:"required,oneof=admin tecnico consulta"`
	Active   *bool  `json:"activo"`
}

type UpdateUserRequest struct {
	Name     *string `json:"nombre" binding:"omitempty,max=100"`
	Email    *string `json:"email" binding:"omitempty,email,max=150"`
	Password *string `json:"password" binding:"omitempty,min=8,max=72"`
	Role     *string `json:"rol" binding:"omitempty,oneof=admin tecnico consulta"`
	Active   *bool   `json:"activo"`
}

// UserAPI управление пользователями (только admin)
type UserAPI struct {
	handlerBase
	users *services.UserService
}

// NewUserAPI создает новый экземпляр UserAPI
func NewUserAPI(base handlerBase, users *services.UserService) *UserAPI {
	return &UserAPI{handlerBase: base, users: users}
}

// GetUsers GET /api/usuarios?rol&activo&search
func (api *UserAPI) GetUsers(c *gin.Context) {
	page, limit, err := pageParams(c)
	if err != nil {
		api.respondError(c, err)
		return
	}
	active, err := queryBool(c, "activo")
	if err != nil {
		api.respondError(c, err)
		return
	}
	role := c.Query("rol")
	if role != "" && !models.ValidRole(role) {
		api.respondError(c, services.FieldError("rol", "Rol inválido"))
		return
	}

	users, pagination, err := api.users.List(services.UserFilters{
		Role:   role,
		Active: active,
		Search: strings.TrimSpace(c.Query("search")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		api.respondError(c, err)
		return
	}
	respondList(c, users, pagination)
}

// GetUser GET /api/usuarios/:id
func (api *UserAPI) GetUser(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		api.respondError(c, err)
		return
	}

	user, err := api.users.GetByID(id)
	if err != nil {
		api.respondError(c, err)
		return
	}
	respondOK(c, user, "")
}

// CreateUser POST /api/usuarios
func (api *UserAPI) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondError(c, bindingError(err))
		return
	}

	user, err := api.users.Create(services.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Active:   req.Active,
	})
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.record(c, models.ActionCreate, models.EntityUser, services.EntityID(user.ID), "Usuario creado: "+user.Email,
		map[string]interface{}{"rol": user.Role})
	respondCreated(c, user, "Usuario creado")
}

// UpdateUser PUT /api/usuarios/:id
func (api *UserAPI) UpdateUser(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		api.respondError(c, err)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondError(c, bindingError(err))
		return
	}

	user, err := api.users.Update(id, services.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Active:   req.Active,
	})
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.record(c, models.ActionEdit, models.EntityUser, services.EntityID(user.ID), "Usuario actualizado: "+user.Email, nil)
	respondOK(c, user, "Usuario actualizado")
}

// ActivateUser PATCH /api/usuarios/:id/activar
func (api *UserAPI) ActivateUser(c *gin.Context) {
	api.setActive(c, true)
}

// DeactivateUser PATCH /api/usuarios/:id/desactivar; последнего активного админа деактивировать нельзя
func (api *UserAPI) DeactivateUser(c *gin.Context) {
	api.setActive(c, false)
}

func (api *UserAPI) setActive(c *gin.Context, active bool) {
	id, err := parseID(c, "id")
	if err != nil {
		api.respondError(c, err)
		return
	}

	user, err := api.users.SetActive(id, active)
	if err != nil {
		api.respondError(c, err)
		return
	}

	description, message := "Usuario desactivado: ", "Usuario desactivado"
	if active {
		description, message = "Usuario activado: ", "Usuario activado"
	}
	api.record(c, models.ActionEdit, models.EntityUser, services.EntityID(user.ID), description+user.Email,
		map[string]interface{}{"activo": active})
	respondOK(c, user, message)
}

// DeleteUser DELETE /api/usuarios/:id; пользователей со ссылками следует деактивировать
func (api *UserAPI) DeleteUser(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		api.respondError(c, err)
		return
	}

	user, err := api.users.Delete(id)
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.record(c, models.ActionDelete, models.EntityUser, services.EntityID(user.ID), "Usuario eliminado: "+user.Email, nil)
	respondOK(c, nil, "Usuario eliminado")
}
