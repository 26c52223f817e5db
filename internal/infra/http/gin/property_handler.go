package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	propertyapp "rentora/internal/app/handlers/properties"
	statsapp "rentora/internal/app/handlers/stats"
)

const maxPhotoSizeBytes int64 = 10 * 1024 * 1024

type PropertyHTTP interface {
	Search(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetAvailability(c *gin.Context)
	UploadPhoto(c *gin.Context)
	Stats(c *gin.Context)
}

type PropertyHandler struct {
	Commands bus.Bus
	Queries  bus.Bus
	Logger   *slog.Logger
}

type propertyRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	PropertyType string `json:"property_type"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	MonthlyRent  int64  `json:"monthly_rent"`
	Currency     string `json:"currency"`
	Bedrooms     int    `json:"bedrooms"`
	Bathrooms    int    `json:"bathrooms"`
	SquareFeet   int    `json:"square_feet"`
	ImageURL     string `json:"image_url"`
	IsAvailable  *bool  `json:"is_available"`
}

func (r propertyRequest) payload() propertyapp.PropertyPayload {
	return propertyapp.PropertyPayload{
		Title:        strings.TrimSpace(r.Title),
		Description:  r.Description,
		PropertyType: r.PropertyType,
		AddressLine:  r.Address,
		City:         strings.TrimSpace(r.City),
		State:        r.State,
		MonthlyRent:  r.MonthlyRent,
		Currency:     strings.ToUpper(strings.TrimSpace(r.Currency)),
		Bedrooms:     r.Bedrooms,
		Bathrooms:    r.Bathrooms,
		SquareFeet:   r.SquareFeet,
		ImageURL:     strings.TrimSpace(r.ImageURL),
	}
}

type availabilityRequest struct {
	Available *bool `json:"is_available" binding:"required"`
}

// Search serves the public catalogue. owner_id narrows it to one owner.
func (h PropertyHandler) Search(c *gin.Context) {
	query := searchQueryFromRequest(c)
	result, err := bus.Dispatch[propertyapp.SearchPropertiesQuery, dto.PropertyCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Get(c *gin.Context) {
	query := propertyapp.GetPropertyQuery{PropertyID: strings.TrimSpace(c.Param("id"))}
	result, err := bus.Dispatch[propertyapp.GetPropertyQuery, dto.Property](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request")
		return
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	cmd := propertyapp.CreatePropertyCommand{Actor: actor, Payload: req.payload(), IsAvailable: available}
	result, err := bus.Dispatch[propertyapp.CreatePropertyCommand, *dto.Property](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h PropertyHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request")
		return
	}
	cmd := propertyapp.UpdatePropertyCommand{Actor: actor, PropertyID: strings.TrimSpace(c.Param("id")), Payload: req.payload()}
	result, err := bus.Dispatch[propertyapp.UpdatePropertyCommand, *dto.Property](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Delete is shared by owners and admins; the command decides who may delete what.
func (h PropertyHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	cmd := propertyapp.DeletePropertyCommand{Actor: actor, PropertyID: strings.TrimSpace(c.Param("id"))}
	if _, err := bus.Dispatch[propertyapp.DeletePropertyCommand, *dto.Property](c.Request.Context(), h.Commands, cmd); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h PropertyHandler) SetAvailability(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "is_available is required")
		return
	}
	cmd := propertyapp.SetAvailabilityCommand{Actor: actor, PropertyID: strings.TrimSpace(c.Param("id")), Available: *req.Available}
	result, err := bus.Dispatch[propertyapp.SetAvailabilityCommand, *dto.Property](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) UploadPhoto(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeBadRequest(c, "file is required")
		return
	}
	if fileHeader.Size <= 0 {
		writeBadRequest(c, "file is empty")
		return
	}
	if fileHeader.Size > maxPhotoSizeBytes {
		writeBadRequest(c, fmt.Sprintf("file too large (max %d MB)", maxPhotoSizeBytes/1024/1024))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		writeBadRequest(c, "cannot read file")
		return
	}
	defer file.Close()

	cmd := propertyapp.AttachPhotoCommand{
		Actor:       actor,
		PropertyID:  strings.TrimSpace(c.Param("id")),
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Reader:      file,
	}
	result, err := bus.Dispatch[propertyapp.AttachPhotoCommand, *dto.Property](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Stats(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	query := statsapp.PropertyStatsQuery{Actor: actor, PropertyID: strings.TrimSpace(c.Param("id"))}
	result, err := bus.Dispatch[statsapp.PropertyStatsQuery, dto.PropertyStats](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func searchQueryFromRequest(c *gin.Context) propertyapp.SearchPropertiesQuery {
	return propertyapp.SearchPropertiesQuery{
		City:          strings.TrimSpace(c.Query("city")),
		MinRent:       parseInt64(c.Query("min_rent")),
		MaxRent:       parseInt64(c.Query("max_rent")),
		OnlyAvailable: parseBool(c.Query("available")),
		OwnerID:       strings.TrimSpace(c.Query("owner_id")),
		Limit:         parseIntWithDefault(c.Query("limit"), 20),
		Offset:        parseInt(c.Query("offset")),
	}
}

func parseInt(raw string) int {
	value, _ := strconv.Atoi(strings.TrimSpace(raw))
	if value < 0 {
		return 0
	}
	return value
}

func parseIntWithDefault(raw string, fallback int) int {
	value := parseInt(raw)
	if value == 0 {
		return fallback
	}
	return value
}

func parseInt64(raw string) int64 {
	value, _ := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if value < 0 {
		return 0
	}
	return value
}

func parseBool(raw string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return value
}

var _ PropertyHTTP = PropertyHandler{}
