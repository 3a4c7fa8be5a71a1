package models

import "time"

const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super-admin"
)

// Admin is singleton-by-invariant: the sentinel column carries a constant
// value under a unique index, so a second INSERT loses at the database no
// matter how many instances race past the application-level check.
type Admin struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"                           json:"id"`
	Sentinel     string `gorm:"column:sentinel;uniqueIndex;not null"               json:"-"`
	Email        string `gorm:"uniqueIndex;not null"                               json:"email"`
	PasswordHash string `gorm:"not null"                                           json:"-"`
	FirstName    string `gorm:"not null"                                           json:"firstName"`
	LastName     string `gorm:"not null"                                           json:"lastName"`
	LicenseKey   string `gorm:"uniqueIndex;not null"                               json:"-"`
	Role         string `gorm:"not null"                                           json:"role"`
	IsActive     bool   `gorm:"not null;default:true"                              json:"isActive"`
	IsVerified   bool   `gorm:"not null;default:false"                             json:"isVerified"`

	LoginAttempts int        `gorm:"not null;default:0" json:"-"`
	LockUntil     *time.Time `json:"-"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`

	CanManageMenu   bool `gorm:"not null;default:true" json:"canManageMenu"`
	CanManageOrders bool `gorm:"not null;default:true" json:"canManageOrders"`

	ResetTokenHash    string     `gorm:"index" json:"-"`
	ResetTokenExpires *time.Time `json:"-"`

	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Admin) Locked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

// RefreshToken is one allow-list entry; the raw token is never stored,
// only its SHA-256 digest.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"             json:"id"`
	Digest    string    `gorm:"uniqueIndex;not null"   json:"-"`
	JTI       string    `gorm:"uniqueIndex;not null"   json:"-"`
	AdminID   uint      `gorm:"index;not null"         json:"admin_id"`
	ExpiresAt int64     `gorm:"not null"               json:"expires_at"`
	Remember  bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	ID            uint        `gorm:"primaryKey"                     json:"id"`
	OrderNumber   string      `gorm:"uniqueIndex;not null"           json:"orderNumber"`
	CustomerName  string      `gorm:"not null"                       json:"customerName"`
	CustomerPhone string      `json:"customerPhone,omitempty"`
	TableNumber   string      `json:"tableNumber,omitempty"`
	Status        string      `gorm:"not null;index"              json:"status"`
	Total         int64       `gorm:"not null"                       json:"total"`
	Items         []OrderItem `gorm:"constraint:OnDelete:CASCADE"    json:"items"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

type OrderItem struct {
	ID         uint   `gorm:"primaryKey"                json:"id"`
	OrderID    uint   `gorm:"index;not null"            json:"order_id"`
	MenuItemID uint   `gorm:"not null"                  json:"menu_item_id"`
	Name       string `gorm:"not null"                  json:"name"`
	UnitPrice  int64  `gorm:"not null"                  json:"unit_price"`
	Quantity   int    `gorm:"not null;check:quantity>0" json:"quantity"`
	LineTotal  int64  `gorm:"not null"                  json:"line_total"`
}

type MenuItem struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null"                 json:"name"`
	Description string    `json:"description"`
	Category    string    `gorm:"index"                    json:"category"`
	Price       int64     `gorm:"not null"                 json:"price"`
	Available   bool      `gorm:"not null;default:true"    json:"available"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
