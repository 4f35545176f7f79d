package storage

import (
	"errors"
	"sync"
	"time"

	"github.com/carqr-app/carqr-backend/internal/models"
)

// Not-found and state-guard errors shared by both store implementations
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrCarNotFound      = errors.New("car not found")
	ErrQRNotFound       = errors.New("qr code not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrPaymentCompleted = errors.New("payment already completed")
)

var (
	storeInstance Store
	storeMu       sync.RWMutex
)

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeMu.Lock()
	defer storeMu.Unlock()
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	storeMu.RLock()
	defer storeMu.RUnlock()
	return storeInstance
}

// Store defines the interface for storage operations. Handlers receive a
// Store so tests can swap in the MemoryStore.
type Store interface {
	// User operations
	CreateUser(user *models.User) (*models.User, error)
	GetUser(id string) (*models.User, error)
	GetUserByPhone(phone string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateUserEmail(id, email string) error
	UpdateUserTemplate(id, templateID string) (*models.User, error)
	UpgradeUserToPremium(id string, expiry time.Time) (*models.User, error)

	// Car operations. SaveCar is an atomic upsert keyed on the owner: a
	// user's second save updates their existing row in place.
	SaveCar(car *models.Car) (*models.Car, error)
	GetCarByUser(userID string) (*models.Car, error)
	GetCarForOwner(carID, userID string) (*models.Car, error)
	GetCarByQR(identifier string) (*models.CarWithOwner, error)
	UpdateCar(car *models.Car) (*models.Car, error)

	// Scan operations. The returned count matches the filter, not the page.
	CreateScan(scan *models.ScanEvent) (*models.ScanEvent, error)
	GetScansByCar(carID string, filter models.ScanFilter) ([]*models.ScanEvent, int64, error)

	// QR operations
	CreateQRCode(qr *models.QRCode) (*models.QRCode, error)
	GetQRCode(id string) (*models.QRCode, error)

	// Payment operations. CompletePayment flips exactly one pending row to
	// completed and extends the owner's premium entitlement in the same
	// transaction; a row that is no longer pending yields ErrPaymentCompleted.
	CreatePayment(payment *models.Payment) (*models.Payment, error)
	GetPaymentByOrder(userID, orderID string) (*models.Payment, error)
	CompletePayment(paymentID string, verifiedAt, premiumExpiry time.Time) (*models.Payment, *models.User, error)
}
