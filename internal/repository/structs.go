package repository

import (
	"errors"
	"time"
)

var (
	ErrObjectNotFound = errors.New("not found")
	// ErrConflict reports a unique constraint violation or a lost conditional update.
	ErrConflict = errors.New("conflict")
)

type User struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	DisplayName  string    `db:"display_name"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	Availability bool      `db:"availability"`
	Earnings     float64   `db:"earnings"`
	CreatedAt    time.Time `db:"created_at"`
}

type Package struct {
	ID              string    `db:"id"`
	Name            string    `db:"name"`
	Description     *string   `db:"description"`
	Weight          *float64  `db:"weight"`
	DimWidth        *float64  `db:"dim_width"`
	DimHeight       *float64  `db:"dim_height"`
	DimDepth        *float64  `db:"dim_depth"`
	PickupAddress   string    `db:"pickup_address"`
	DeliveryAddress string    `db:"delivery_address"`
	Price           *float64  `db:"price"`
	Status          string    `db:"status"`
	OwnerID         string    `db:"owner_id"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// PackageWithOwner is a package row joined with the display-safe owner columns.
type PackageWithOwner struct {
	Package
	OwnerUsername    string `db:"owner_username"`
	OwnerDisplayName string `db:"owner_display_name"`
}

type Delivery struct {
	ID              string     `db:"id"`
	PackageID       string     `db:"package_id"`
	PickupLocation  string     `db:"pickup_location"`
	DropoffLocation string     `db:"dropoff_location"`
	Status          string     `db:"status"`
	DriverID        string     `db:"driver_id"`
	PickupTime      *time.Time `db:"pickup_time"`
	DeliveryTime    *time.Time `db:"delivery_time"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// DeliveryDetails is a delivery row joined with its package and the package owner.
// Package columns are aliased with a pkg_ prefix.
type DeliveryDetails struct {
	Delivery
	PackageName            string   `db:"pkg_name"`
	PackageDescription     *string  `db:"pkg_description"`
	PackageWeight          *float64 `db:"pkg_weight"`
	PackagePickupAddress   string   `db:"pkg_pickup_address"`
	PackageDeliveryAddress string   `db:"pkg_delivery_address"`
	PackagePrice           *float64 `db:"pkg_price"`
	PackageStatus          string   `db:"pkg_status"`
	PackageOwnerID         string   `db:"pkg_owner_id"`
	OwnerUsername          string   `db:"owner_username"`
	OwnerDisplayName       string   `db:"owner_display_name"`
}

type HistoryEntry struct {
	ID         int64     `db:"id"`
	EntityType string    `db:"entity_type"`
	EntityID   string    `db:"entity_id"`
	Status     string    `db:"status"`
	ChangedBy  string    `db:"changed_by"`
	ChangedAt  time.Time `db:"changed_at"`
}
