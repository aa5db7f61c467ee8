package storage

import (
	"fmt"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/repository"
)

type PackageStatus string

const (
	PackagePending        PackageStatus = "pending"
	PackageAccepted       PackageStatus = "accepted"
	PackageCancelled      PackageStatus = "cancelled"
	PackageCompleted      PackageStatus = "completed"
	PackageFailedDelivery PackageStatus = "failed_delivery"
)

func (s PackageStatus) IsTerminal() bool {
	return s == PackageCompleted || s == PackageFailedDelivery
}

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryAssigned  DeliveryStatus = "assigned"
	DeliveryInTransit DeliveryStatus = "in-transit"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

func ParseDeliveryStatus(raw string) (DeliveryStatus, error) {
	switch s := DeliveryStatus(raw); s {
	case DeliveryPending, DeliveryAssigned, DeliveryInTransit, DeliveryDelivered, DeliveryFailed:
		return s, nil
	default:
		return "", fmt.Errorf("%w: unsupported delivery status %q", ErrValidation, raw)
	}
}

func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryDelivered || s == DeliveryFailed
}

// rank orders statuses along the lifecycle. A delivery may skip ahead but
// never move to a lower rank.
func (s DeliveryStatus) rank() int {
	switch s {
	case DeliveryPending:
		return 0
	case DeliveryAssigned:
		return 1
	case DeliveryInTransit:
		return 2
	case DeliveryDelivered, DeliveryFailed:
		return 3
	default:
		return -1
	}
}

type Dimensions struct {
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
	Depth  float64 `json:"depth" validate:"gt=0"`
}

type Owner struct {
	ID          string `json:"id"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

type Package struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Description     *string       `json:"description,omitempty"`
	Weight          *float64      `json:"weight,omitempty"`
	Dimensions      *Dimensions   `json:"dimensions,omitempty"`
	PickupAddress   string        `json:"pickupAddress"`
	DeliveryAddress string        `json:"deliveryAddress"`
	Price           *float64      `json:"price,omitempty"`
	Status          PackageStatus `json:"status"`
	Owner           Owner         `json:"owner"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// NewPackage is the sender's input to CreatePackage.
type NewPackage struct {
	Name            string      `json:"name" validate:"required"`
	Description     *string     `json:"description"`
	Weight          *float64    `json:"weight" validate:"omitempty,gte=0"`
	Dimensions      *Dimensions `json:"dimensions"`
	PickupAddress   string      `json:"pickupAddress" validate:"required"`
	DeliveryAddress string      `json:"deliveryAddress" validate:"required"`
	Price           *float64    `json:"price" validate:"omitempty,gte=0,money"`
}

type Delivery struct {
	ID              string         `json:"id"`
	PackageID       string         `json:"package_id"`
	PickupLocation  string         `json:"pickup_location"`
	DropoffLocation string         `json:"dropoff_location"`
	Status          DeliveryStatus `json:"status"`
	DriverID        string         `json:"driver_id"`
	PickupTime      *time.Time     `json:"pickup_time,omitempty"`
	DeliveryTime    *time.Time     `json:"delivery_time,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ActiveDelivery is a delivery shown to its driver together with the package.
type ActiveDelivery struct {
	Delivery
	Package Package `json:"package"`
}

type AcceptResult struct {
	Delivery Delivery `json:"delivery"`
	Package  Package  `json:"package"`
	// Existing is set when an active delivery was already present and
	// returned instead of a new one.
	Existing bool `json:"existing,omitempty"`
}

type Earnings struct {
	Username string  `json:"username"`
	Earnings float64 `json:"earnings"`
}

type Availability struct {
	Username     string `json:"username"`
	Availability bool   `json:"availability"`
}

type HistoryEntry struct {
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Status     string    `json:"status"`
	ChangedBy  string    `json:"changed_by,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"displayName"`
	Role         Role      `json:"role"`
	Availability bool      `json:"availability"`
	CreatedAt    time.Time `json:"createdAt"`
}

type NewUser struct {
	Username    string `json:"username" validate:"required,min=3,max=64"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	DisplayName string `json:"displayName" validate:"max=128"`
	Role        string `json:"role" validate:"required"`
}

func packageFromRow(row *repository.Package) Package {
	pkg := Package{
		ID:              row.ID,
		Name:            row.Name,
		Description:     row.Description,
		Weight:          row.Weight,
		PickupAddress:   row.PickupAddress,
		DeliveryAddress: row.DeliveryAddress,
		Price:           row.Price,
		Status:          PackageStatus(row.Status),
		Owner:           Owner{ID: row.OwnerID},
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if row.DimWidth != nil && row.DimHeight != nil && row.DimDepth != nil {
		pkg.Dimensions = &Dimensions{Width: *row.DimWidth, Height: *row.DimHeight, Depth: *row.DimDepth}
	}
	return pkg
}

func packageFromOwnerRow(row *repository.PackageWithOwner) Package {
	pkg := packageFromRow(&row.Package)
	pkg.Owner.Username = row.OwnerUsername
	pkg.Owner.DisplayName = row.OwnerDisplayName
	return pkg
}

func deliveryFromRow(row *repository.Delivery) Delivery {
	return Delivery{
		ID:              row.ID,
		PackageID:       row.PackageID,
		PickupLocation:  row.PickupLocation,
		DropoffLocation: row.DropoffLocation,
		Status:          DeliveryStatus(row.Status),
		DriverID:        row.DriverID,
		PickupTime:      row.PickupTime,
		DeliveryTime:    row.DeliveryTime,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func activeDeliveryFromRow(row *repository.DeliveryDetails) ActiveDelivery {
	return ActiveDelivery{
		Delivery: deliveryFromRow(&row.Delivery),
		Package: Package{
			ID:              row.PackageID,
			Name:            row.PackageName,
			Description:     row.PackageDescription,
			Weight:          row.PackageWeight,
			PickupAddress:   row.PackagePickupAddress,
			DeliveryAddress: row.PackageDeliveryAddress,
			Price:           row.PackagePrice,
			Status:          PackageStatus(row.PackageStatus),
			Owner: Owner{
				ID:          row.PackageOwnerID,
				Username:    row.OwnerUsername,
				DisplayName: row.OwnerDisplayName,
			},
		},
	}
}

// userFromRow fails when the stored role is not one this service issues
// tokens for.
func userFromRow(row *repository.User) (User, error) {
	role, err := ParseRole(row.Role)
	if err != nil {
		return User{}, fmt.Errorf("user %s has unsupported stored role %q", row.ID, row.Role)
	}
	return User{
		ID:           row.ID,
		Username:     row.Username,
		DisplayName:  row.DisplayName,
		Role:         role,
		Availability: row.Availability,
		CreatedAt:    row.CreatedAt,
	}, nil
}

// Lifecycle events written to the outbox.
const (
	EventPackageCreated        = "package.created"
	EventPackageAccepted       = "package.accepted"
	EventDeliveryStatusChanged = "delivery.status_changed"
)

const (
	entityPackage  = "package"
	entityDelivery = "delivery"
)
