package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-registration-api/internal/dto"
	"github.com/noah-isme/uni-registration-api/internal/models"
	"github.com/noah-isme/uni-registration-api/pkg/response"
)

type catalogService interface {
	ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	CreateCourse(ctx context.Context, req dto.CourseRequest) (*models.Course, error)
	UpdateCourse(ctx context.Context, id string, req dto.CourseRequest) (*models.Course, error)
	DeleteCourse(ctx context.Context, id string) error
	ListMajors(ctx context.Context) ([]models.Major, error)
	CreateMajor(ctx context.Context, req dto.MajorRequest) (*models.Major, error)
	UpdateMajor(ctx context.Context, id string, req dto.MajorRequest) (*models.Major, error)
	DeleteMajor(ctx context.Context, id string) error
}

// CatalogHandler exposes courses and majors.
type CatalogHandler struct {
	catalog catalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog catalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListCourses godoc
// @Summary List catalog courses
// @Tags Catalog
// @Produce json
// @Param level query int false "Level"
// @Param major_id query string false "Major"
// @Param search query string false "Code or name"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	filter := models.CourseFilter{MajorID: c.Query("major_id"), Search: c.Query("search")}
	if level, err := strconv.Atoi(c.Query("level")); err == nil {
		filter.Level = level
	}
	courses, err := h.catalog.ListCourses(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// GetCourse godoc
// @Summary Get a course
// @Tags Catalog
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	course, err := h.catalog.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// CreateCourse godoc
// @Summary Create a course
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CourseRequest true "Course"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CatalogHandler) CreateCourse(c *gin.Context) {
	var req dto.CourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}
	course, err := h.catalog.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// UpdateCourse godoc
// @Summary Update a course
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.CourseRequest true "Course"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CatalogHandler) UpdateCourse(c *gin.Context) {
	var req dto.CourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}
	course, err := h.catalog.UpdateCourse(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// DeleteCourse godoc
// @Summary Delete a course
// @Tags Catalog
// @Param id path string true "Course ID"
// @Success 204
// @Router /courses/{id} [delete]
func (h *CatalogHandler) DeleteCourse(c *gin.Context) {
	if err := h.catalog.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListMajors godoc
// @Summary List majors
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /majors [get]
func (h *CatalogHandler) ListMajors(c *gin.Context) {
	majors, err := h.catalog.ListMajors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, majors, nil)
}

// CreateMajor godoc
// @Summary Create a major
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.MajorRequest true "Major"
// @Success 201 {object} response.Envelope
// @Router /majors [post]
func (h *CatalogHandler) CreateMajor(c *gin.Context) {
	var req dto.MajorRequest
	if !bindJSON(c, &req, "invalid major payload") {
		return
	}
	major, err := h.catalog.CreateMajor(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, major)
}

// UpdateMajor godoc
// @Summary Update a major
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Major ID"
// @Param payload body dto.MajorRequest true "Major"
// @Success 200 {object} response.Envelope
// @Router /majors/{id} [put]
func (h *CatalogHandler) UpdateMajor(c *gin.Context) {
	var req dto.MajorRequest
	if !bindJSON(c, &req, "invalid major payload") {
		return
	}
	major, err := h.catalog.UpdateMajor(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, major, nil)
}

// DeleteMajor godoc
// @Summary Delete a major
// @Tags Catalog
// @Param id path string true "Major ID"
// @Success 204
// @Router /majors/{id} [delete]
func (h *CatalogHandler) DeleteMajor(c *gin.Context) {
	if err := h.catalog.DeleteMajor(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
