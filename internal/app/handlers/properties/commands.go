package properties

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	handlersupport "rentora/internal/app/handlers/support"
	"rentora/internal/app/outbox"
	"rentora/internal/app/policies"
	"rentora/internal/app/uow"
	"rentora/internal/domain/auth"
	domainproperty "rentora/internal/domain/property"
	"rentora/internal/domain/shared/clock"
	"rentora/internal/domain/shared/money"
	"rentora/internal/domain/user"
)

var (
	ErrPhotosUnavailable = errors.New("properties: photo storage is not configured")
	ErrPhotoRequired     = errors.New("properties: photo content is required")
)

const (
	CreatePropertyKey   = "property.create"
	UpdatePropertyKey   = "property.update"
	DeletePropertyKey   = "property.delete"
	SetAvailabilityKey  = "property.set_availability"
	AttachPhotoKey      = "property.attach_photo"
	defaultCurrencyCode = "INR"
)

// PropertyPayload is the editable part of a property. MonthlyRent is in whole currency units.
type PropertyPayload struct {
	Title        string `validate:"required,max=200"`
	Description  string `validate:"max=5000"`
	PropertyType string `validate:"max=50"`
	AddressLine  string `validate:"max=300"`
	City         string `validate:"required,max=100"`
	State        string `validate:"max=100"`
	MonthlyRent  int64  `validate:"gt=0"`
	Currency     string `validate:"omitempty,len=3"`
	Bedrooms     int    `validate:"gt=0,lte=50"`
	Bathrooms    int    `validate:"gt=0,lte=50"`
	SquareFeet   int    `validate:"gte=0"`
	ImageURL     string `validate:"omitempty,url"`
}

func (p PropertyPayload) details(defaultCurrency string) (domainproperty.Details, error) {
	currency := p.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	rent, err := money.FromMajor(p.MonthlyRent, currency)
	if err != nil {
		return domainproperty.Details{}, err
	}
	return domainproperty.Details{
		Title:        p.Title,
		Description:  p.Description,
		PropertyType: p.PropertyType,
		Address:      domainproperty.Address{Line: p.AddressLine, City: p.City, State: p.State},
		Rent:         rent,
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
		SquareFeet:   p.SquareFeet,
		ImageURL:     p.ImageURL,
	}, nil
}

type CreatePropertyCommand struct {
	Actor       auth.Actor
	Payload     PropertyPayload
	IsAvailable bool
}

func (c CreatePropertyCommand) Key() string               { return CreatePropertyKey }
func (c CreatePropertyCommand) Principal() auth.Actor     { return c.Actor }
func (c CreatePropertyCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleOwner} }

type UpdatePropertyCommand struct {
	Actor      auth.Actor
	PropertyID string `validate:"required"`
	Payload    PropertyPayload
}

func (c UpdatePropertyCommand) Key() string               { return UpdatePropertyKey }
func (c UpdatePropertyCommand) Principal() auth.Actor     { return c.Actor }
func (c UpdatePropertyCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleOwner} }

// DeletePropertyCommand is available to the owner and to admins.
type DeletePropertyCommand struct {
	Actor      auth.Actor
	PropertyID string `validate:"required"`
}

func (c DeletePropertyCommand) Key() string           { return DeletePropertyKey }
func (c DeletePropertyCommand) Principal() auth.Actor { return c.Actor }
func (c DeletePropertyCommand) AllowedRoles() []user.Role {
	return []user.Role{user.RoleOwner, user.RoleAdmin}
}

type SetAvailabilityCommand struct {
	Actor      auth.Actor
	PropertyID string `validate:"required"`
	Available  bool
}

func (c SetAvailabilityCommand) Key() string               { return SetAvailabilityKey }
func (c SetAvailabilityCommand) Principal() auth.Actor     { return c.Actor }
func (c SetAvailabilityCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleOwner} }

type AttachPhotoCommand struct {
	Actor       auth.Actor
	PropertyID  string `validate:"required"`
	FileName    string `validate:"required,max=255"`
	ContentType string `validate:"required,startswith=image/"`
	Reader      io.Reader
}

func (c AttachPhotoCommand) Key() string               { return AttachPhotoKey }
func (c AttachPhotoCommand) Principal() auth.Actor     { return c.Actor }
func (c AttachPhotoCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleOwner} }

// CommandHandler serves every property write.
type CommandHandler struct {
	Clock    clock.Clock
	Encoder  outbox.EventEncoder
	Photos   policies.PhotoStore
	Currency string
	Logger   *slog.Logger
	NewID    func() string
}

func (h *CommandHandler) Create(ctx context.Context, cmd CreatePropertyCommand) (*dto.Property, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	details, err := cmd.Payload.details(h.currency())
	if err != nil {
		return nil, err
	}
	p, err := domainproperty.NewProperty(domainproperty.CreateParams{
		ID:          domainproperty.ID(h.newID()),
		OwnerID:     cmd.Actor.UserID,
		Details:     details,
		IsAvailable: cmd.IsAvailable,
		Now:         h.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := h.save(ctx, unit, p); err != nil {
		return nil, err
	}
	h.log(ctx, "property created", p, cmd.Actor)
	result := dto.MapProperty(p)
	return &result, nil
}

func (h *CommandHandler) Update(ctx context.Context, cmd UpdatePropertyCommand) (*dto.Property, error) {
	unit, p, err := h.owned(ctx, cmd.PropertyID, cmd.Actor)
	if err != nil {
		return nil, err
	}
	details, err := cmd.Payload.details(p.Rent.Currency)
	if err != nil {
		return nil, err
	}
	if err := p.Update(details, h.now()); err != nil {
		return nil, err
	}
	if err := h.save(ctx, unit, p); err != nil {
		return nil, err
	}
	h.log(ctx, "property updated", p, cmd.Actor)
	result := dto.MapProperty(p)
	return &result, nil
}

// Delete removes the property unless bookings are still pending or approved.
func (h *CommandHandler) Delete(ctx context.Context, cmd DeletePropertyCommand) (*dto.Property, error) {
	unit, p, err := h.owned(ctx, cmd.PropertyID, cmd.Actor)
	if err != nil {
		return nil, err
	}
	snapshot, err := unit.Bookings().Snapshot(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	active := 0
	for _, b := range snapshot.Bookings {
		if b.Status.Occupying() {
			active++
		}
	}
	if err := p.Retire(cmd.Actor.UserID, active, h.now()); err != nil {
		return nil, err
	}
	if err := unit.Properties().Delete(ctx, p.ID); err != nil {
		return nil, err
	}
	if err := handlersupport.StageEvents(ctx, unit, h.Encoder, p); err != nil {
		return nil, err
	}
	h.log(ctx, "property deleted", p, cmd.Actor)
	result := dto.MapProperty(p)
	return &result, nil
}

func (h *CommandHandler) SetAvailability(ctx context.Context, cmd SetAvailabilityCommand) (*dto.Property, error) {
	unit, p, err := h.owned(ctx, cmd.PropertyID, cmd.Actor)
	if err != nil {
		return nil, err
	}
	p.SetAvailability(cmd.Available, h.now())
	if err := h.save(ctx, unit, p); err != nil {
		return nil, err
	}
	h.log(ctx, "property availability set", p, cmd.Actor, "available", cmd.Available)
	result := dto.MapProperty(p)
	return &result, nil
}

func (h *CommandHandler) AttachPhoto(ctx context.Context, cmd AttachPhotoCommand) (*dto.Property, error) {
	if h.Photos == nil {
		return nil, ErrPhotosUnavailable
	}
	if cmd.Reader == nil {
		return nil, ErrPhotoRequired
	}
	unit, p, err := h.owned(ctx, cmd.PropertyID, cmd.Actor)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("properties/%s/%s%s", p.ID, h.newID(), strings.ToLower(path.Ext(cmd.FileName)))
	url, err := h.Photos.Upload(ctx, key, cmd.Reader, cmd.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	p.AttachImage(url, h.now())
	if err := h.save(ctx, unit, p); err != nil {
		return nil, err
	}
	h.log(ctx, "property photo attached", p, cmd.Actor, "object_key", key)
	result := dto.MapProperty(p)
	return &result, nil
}

// Register wires the property commands into reg.
func (h *CommandHandler) Register(reg *bus.Registry) {
	bus.Register[CreatePropertyCommand, *dto.Property](reg, CreatePropertyKey, bus.HandlerFunc[CreatePropertyCommand, *dto.Property](h.Create))
	bus.Register[UpdatePropertyCommand, *dto.Property](reg, UpdatePropertyKey, bus.HandlerFunc[UpdatePropertyCommand, *dto.Property](h.Update))
	bus.Register[DeletePropertyCommand, *dto.Property](reg, DeletePropertyKey, bus.HandlerFunc[DeletePropertyCommand, *dto.Property](h.Delete))
	bus.Register[SetAvailabilityCommand, *dto.Property](reg, SetAvailabilityKey, bus.HandlerFunc[SetAvailabilityCommand, *dto.Property](h.SetAvailability))
	bus.Register[AttachPhotoCommand, *dto.Property](reg, AttachPhotoKey, bus.HandlerFunc[AttachPhotoCommand, *dto.Property](h.AttachPhoto))
}

// owned loads the property and checks the actor may manage it. Admins manage every property.
func (h *CommandHandler) owned(ctx context.Context, id string, actor auth.Actor) (uow.UnitOfWork, *domainproperty.Property, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, nil, err
	}
	p, err := unit.Properties().ByID(ctx, domainproperty.ID(id))
	if err != nil {
		return nil, nil, err
	}
	if !actor.Is(user.RoleAdmin) && !p.OwnedBy(actor.UserID) {
		return nil, nil, domainproperty.ErrNotOwned
	}
	return unit, p, nil
}

func (h *CommandHandler) save(ctx context.Context, unit uow.UnitOfWork, p *domainproperty.Property) error {
	if err := unit.Properties().Save(ctx, p); err != nil {
		return err
	}
	return handlersupport.StageEvents(ctx, unit, h.Encoder, p)
}

func (h *CommandHandler) log(ctx context.Context, msg string, p *domainproperty.Property, actor auth.Actor, extra ...any) {
	if h.Logger == nil {
		return
	}
	attrs := append([]any{"property_id", p.ID, "owner_id", p.OwnerID, "actor_id", actor.UserID}, extra...)
	h.Logger.InfoContext(ctx, msg, attrs...)
}

func (h *CommandHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return time.Now().UTC()
}

func (h *CommandHandler) currency() string {
	if h.Currency != "" {
		return h.Currency
	}
	return defaultCurrencyCode
}

func (h *CommandHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}
