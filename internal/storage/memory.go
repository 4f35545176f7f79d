package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/carqr-app/carqr-backend/internal/models"
	"github.com/carqr-app/carqr-backend/internal/utils"
)

// MemoryStore holds all data in memory. Used by tests and
// USE_MEMORY_STORE=true runs; not for production.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	cars     map[string]*models.Car
	scans    map[string]*models.ScanEvent
	qrCodes  map[string]*models.QRCode
	payments map[string]*models.Payment
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*models.User),
		cars:     make(map[string]*models.Car),
		scans:    make(map[string]*models.ScanEvent),
		qrCodes:  make(map[string]*models.QRCode),
		payments: make(map[string]*models.Payment),
	}
}

// ===== User operations =====

func (m *MemoryStore) CreateUser(user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.ID == "" {
		user.ID = utils.GenerateSecureID("user_")
	}
	if user.Plan == "" {
		user.Plan = models.PlanBasic
	}
	if user.SelectedTemplate == "" {
		user.SelectedTemplate = "modern"
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	m.users[user.ID] = user
	return user, nil
}

func (m *MemoryStore) GetUser(id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (m *MemoryStore) GetUserByPhone(phone string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Phone == phone {
			return user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MemoryStore) GetUserByEmail(email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MemoryStore) UpdateUserEmail(id, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[id]
	if !exists {
		return ErrUserNotFound
	}
	user.Email = email
	user.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) UpdateUserTemplate(id, templateID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}
	user.SelectedTemplate = templateID
	user.UpdatedAt = time.Now()
	return user, nil
}

func (m *MemoryStore) UpgradeUserToPremium(id string, expiry time.Time) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}
	user.IsPremium = true
	user.Plan = models.PlanPremium
	user.PremiumExpiryDate = &expiry
	user.UpdatedAt = time.Now()
	return user, nil
}

// ===== Car operations =====

func (m *MemoryStore) SaveCar(car *models.Car) (*models.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	car.Normalize()
	now := time.Now()

	// Upsert keyed on the owner: a second save updates the existing row
	for _, existing := range m.cars {
		if existing.UserID == car.UserID {
			existing.CarNumber = car.CarNumber
			existing.CarModel = car.CarModel
			existing.CustomMessage = car.CustomMessage
			existing.SelectedTemplate = car.SelectedTemplate
			existing.CustomFields = car.CustomFields
			existing.UpdatedAt = now
			return existing, nil
		}
	}

	if car.ID == "" {
		car.ID = utils.GenerateSecureID("car_")
	}
	car.CreatedAt = now
	car.UpdatedAt = now
	m.cars[car.ID] = car

	if user, exists := m.users[car.UserID]; exists {
		user.HasCarInfo = true
	}
	return car, nil
}

func (m *MemoryStore) GetCarByUser(userID string) (*models.Car, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, car := range m.cars {
		if car.UserID == userID {
			return car, nil
		}
	}
	return nil, ErrCarNotFound
}

func (m *MemoryStore) GetCarForOwner(carID, userID string) (*models.Car, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	car, exists := m.cars[carID]
	if !exists || car.UserID != userID {
		return nil, ErrCarNotFound
	}
	return car, nil
}

func (m *MemoryStore) GetCarByQR(identifier string) (*models.CarWithOwner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, car := range m.cars {
		if car.ID == identifier || car.CarNumber == identifier {
			owner, exists := m.users[car.UserID]
			if !exists {
				return nil, ErrUserNotFound
			}
			return &models.CarWithOwner{
				Car:        *car,
				OwnerPhone: owner.Phone,
				OwnerEmail: owner.Email,
			}, nil
		}
	}
	return nil, ErrCarNotFound
}

func (m *MemoryStore) UpdateCar(car *models.Car) (*models.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.cars[car.ID]; !exists {
		return nil, ErrCarNotFound
	}
	car.Normalize()
	car.UpdatedAt = time.Now()
	m.cars[car.ID] = car
	return car, nil
}

// ===== Scan operations =====

func (m *MemoryStore) CreateScan(scan *models.ScanEvent) (*models.ScanEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if scan.ID == "" {
		scan.ID = utils.GenerateSecureID("scan_")
	}
	if scan.Timestamp.IsZero() {
		scan.Timestamp = time.Now()
	}
	m.scans[scan.ID] = scan
	return scan, nil
}

func (m *MemoryStore) GetScansByCar(carID string, filter models.ScanFilter) ([]*models.ScanEvent, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*models.ScanEvent
	for _, scan := range m.scans {
		if scan.CarID != carID {
			continue
		}
		if filter.From != nil && scan.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && scan.Timestamp.After(*filter.To) {
			continue
		}
		matched = append(matched, scan)
	}

	// Newest first
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	total := int64(len(matched))
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []*models.ScanEvent{}, total, nil
	}
	matched = matched[offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

// ===== QR operations =====

func (m *MemoryStore) CreateQRCode(qr *models.QRCode) (*models.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if qr.ID == "" {
		qr.ID = utils.GenerateSecureID("qr_")
	}
	qr.CreatedAt = time.Now()
	m.qrCodes[qr.ID] = qr
	return qr, nil
}

func (m *MemoryStore) GetQRCode(id string) (*models.QRCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	qr, exists := m.qrCodes[id]
	if !exists {
		return nil, ErrQRNotFound
	}
	return qr, nil
}

// ===== Payment operations =====

func (m *MemoryStore) CreatePayment(payment *models.Payment) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if payment.ID == "" {
		payment.ID = utils.GenerateSecureID("pay_")
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	m.payments[payment.ID] = payment
	return payment, nil
}

func (m *MemoryStore) GetPaymentByOrder(userID, orderID string) (*models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, payment := range m.payments {
		if payment.UserID == userID && payment.OrderID == orderID {
			return payment, nil
		}
	}
	return nil, ErrPaymentNotFound
}

func (m *MemoryStore) CompletePayment(paymentID string, verifiedAt, premiumExpiry time.Time) (*models.Payment, *models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	payment, exists := m.payments[paymentID]
	if !exists {
		return nil, nil, ErrPaymentNotFound
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, nil, ErrPaymentCompleted
	}

	user, exists := m.users[payment.UserID]
	if !exists {
		return nil, nil, ErrUserNotFound
	}

	payment.Status = models.PaymentStatusCompleted
	payment.VerifiedAt = &verifiedAt
	payment.UpdatedAt = verifiedAt

	user.IsPremium = true
	user.Plan = models.PlanPremium
	user.PremiumExpiryDate = &premiumExpiry
	user.UpdatedAt = verifiedAt

	return payment, user, nil
}
