// Package domain defines the persistence models for identities, booking
// requests, and gallery entries. These types are mapped with GORM and form
// the core data layer of the booking application.
package domain

import (
	"time"
)

// Role distinguishes administrators from customers.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// Status is the review state of a booking request.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusAccepted Status = "Accepted"
	StatusDenied   Status = "Denied"
)

// User is an account able to sign in. Customers are created at signup with
// Username equal to their (lower-cased) email; administrators are either
// bootstrapped at startup or promoted out of band.
//
// Fields:
//   - ID: auto-increment primary key.
//   - Username: unique login name.
//   - Email: contact email, lower-cased on signup (indexed).
//   - PasswordHash: bcrypt hash, never serialized.
//   - FirstName / LastName: split from the full name given at signup.
//   - Role: "admin" or "customer".
//   - IsSuperuser: elevated privilege independent of Role.
//   - IsActive: inactive accounts cannot sign in.
type User struct {
	ID           uint      `json:"id"         gorm:"primaryKey"`
	Username     string    `json:"username"   gorm:"type:varchar(150);not null;uniqueIndex"`
	Email        string    `json:"email"      gorm:"type:varchar(254);not null;index"`
	PasswordHash string    `json:"-"          gorm:"type:varchar(255);not null"`
	FirstName    string    `json:"first_name" gorm:"type:varchar(150);not null;default:''"`
	LastName     string    `json:"last_name"  gorm:"type:varchar(150);not null;default:''"`
	Role         Role      `json:"role"       gorm:"type:varchar(20);not null;default:'customer'"`
	IsSuperuser  bool      `json:"-"          gorm:"not null;default:false"`
	IsActive     bool      `json:"-"          gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// IsAdministrator reports whether u may access administrator-only data.
// A nil user is never an administrator.
func (u *User) IsAdministrator() bool {
	if u == nil {
		return false
	}
	return u.IsSuperuser || u.Role == RoleAdmin
}

// DisplayName returns the first name, falling back to the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

// Booking is a customer's appointment / commission request.
//
// Fields:
//   - UserID: owning account; nullable, cascade-deleted with the user.
//   - FullName, Email, Contact, Date, ArtStyle: customer-supplied.
//   - ArtImage: asset key of the image to draw ("" when absent).
//   - ReferenceImage: asset key of the payment/reference screenshot ("" when absent).
//   - Status: Pending, Accepted or Denied.
type Booking struct {
	ID             uint      `json:"id"              gorm:"primaryKey"`
	UserID         *uint     `json:"user_id,omitempty" gorm:"index"`
	FullName       string    `json:"fullname"        gorm:"type:varchar(100);not null"`
	Email          string    `json:"email"           gorm:"type:varchar(100);not null"`
	Contact        string    `json:"contact"         gorm:"type:varchar(20);not null"`
	Date           time.Time `json:"date"            gorm:"not null"`
	ArtStyle       string    `json:"artstyle"        gorm:"type:varchar(100);not null"`
	ArtImage       string    `json:"art_image,omitempty"         gorm:"type:varchar(255);not null;default:''"`
	ReferenceImage string    `json:"payment_reference,omitempty" gorm:"type:varchar(255);not null;default:''"`
	Status         Status    `json:"status"          gorm:"type:varchar(10);not null;default:'Pending';index"`
	CreatedAt      time.Time `json:"created_at"      gorm:"index"`
	UpdatedAt      time.Time `json:"updated_at"`

	// User is the owning account. Bookings are cascade-deleted with it.
	User *User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Booking.
func (Booking) TableName() string { return "bookings" }

func (b *Booking) IsPending() bool  { return b.Status == StatusPending }
func (b *Booking) IsAccepted() bool { return b.Status == StatusAccepted }

// HasAssets reports whether at least one uploaded asset is attached.
func (b *Booking) HasAssets() bool {
	return b.ArtImage != "" || b.ReferenceImage != ""
}

// GalleryEntry is a finished piece published after a booking is accepted.
// It holds copies of the booking's assets, not references to them, and has
// no relation back to the originating booking.
type GalleryEntry struct {
	ID         uint      `json:"id"          gorm:"primaryKey"`
	ClientName string    `json:"client_name" gorm:"type:varchar(100);not null;index:idx_gallery_client,priority:1"`
	Contact    *string   `json:"contact,omitempty" gorm:"type:varchar(20);index:idx_gallery_client,priority:2"`
	Art        string    `json:"art,omitempty"       gorm:"type:varchar(255);not null;default:''"`
	Reference  string    `json:"reference,omitempty" gorm:"type:varchar(255);not null;default:''"`
	CreatedAt  time.Time `json:"date_uploaded" gorm:"index"`
	UpdatedAt  time.Time `json:"-"`
}

// TableName returns the database table name for GalleryEntry.
func (GalleryEntry) TableName() string { return "gallery_entries" }
