package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/carqr-app/carqr-backend/internal/models"
)

// DatabaseStore implements Store on top of GORM/PostgreSQL
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a store backed by the given database handle
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// ===== User operations =====

func (s *DatabaseStore) CreateUser(user *models.User) (*models.User, error) {
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *DatabaseStore) GetUser(id string) (*models.User, error) {
	var user models.User
	err := s.db.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *DatabaseStore) GetUserByPhone(phone string) (*models.User, error) {
	var user models.User
	err := s.db.Where("phone = ?", phone).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *DatabaseStore) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *DatabaseStore) UpdateUserEmail(id, email string) error {
	return s.db.Model(&models.User{}).Where("id = ?", id).
		Update("email", email).Error
}

func (s *DatabaseStore) UpdateUserTemplate(id, templateID string) (*models.User, error) {
	result := s.db.Model(&models.User{}).Where("id = ?", id).
		Update("selected_template", templateID)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return s.GetUser(id)
}

func (s *DatabaseStore) UpgradeUserToPremium(id string, expiry time.Time) (*models.User, error) {
	result := s.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_premium":          true,
		"plan":                models.PlanPremium,
		"premium_expiry_date": expiry,
	})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return s.GetUser(id)
}

// ===== Car operations =====

// SaveCar upserts the owner's single car row. ON CONFLICT on the unique
// user_id column closes the check-then-act race a select+insert would
// leave open; the hasCarInfo flag rides in the same transaction.
func (s *DatabaseStore) SaveCar(car *models.Car) (*models.Car, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"car_number", "car_model", "custom_message",
				"selected_template", "custom_fields", "updated_at",
			}),
		}).Create(car).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", car.UserID).
			Update("has_car_info", true).Error
	})
	if err != nil {
		return nil, err
	}
	// Reload: on conflict the row keeps its original ID
	return s.GetCarByUser(car.UserID)
}

func (s *DatabaseStore) GetCarByUser(userID string) (*models.Car, error) {
	var car models.Car
	err := s.db.Where("user_id = ?", userID).First(&car).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCarNotFound
	}
	if err != nil {
		return nil, err
	}
	return &car, nil
}

func (s *DatabaseStore) GetCarForOwner(carID, userID string) (*models.Car, error) {
	var car models.Car
	err := s.db.Where("id = ? AND user_id = ?", carID, userID).First(&car).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCarNotFound
	}
	if err != nil {
		return nil, err
	}
	return &car, nil
}

func (s *DatabaseStore) GetCarByQR(identifier string) (*models.CarWithOwner, error) {
	var car models.Car
	err := s.db.Where("id = ? OR car_number = ?", identifier, identifier).First(&car).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCarNotFound
	}
	if err != nil {
		return nil, err
	}

	owner, err := s.GetUser(car.UserID)
	if err != nil {
		return nil, err
	}

	return &models.CarWithOwner{
		Car:        car,
		OwnerPhone: owner.Phone,
		OwnerEmail: owner.Email,
	}, nil
}

func (s *DatabaseStore) UpdateCar(car *models.Car) (*models.Car, error) {
	if err := s.db.Save(car).Error; err != nil {
		return nil, err
	}
	return car, nil
}

// ===== Scan operations =====

func (s *DatabaseStore) CreateScan(scan *models.ScanEvent) (*models.ScanEvent, error) {
	if err := s.db.Create(scan).Error; err != nil {
		return nil, err
	}
	return scan, nil
}

// GetScansByCar pages newest-first. The count query reuses the filtered
// query so pagination metadata and page contents never disagree.
func (s *DatabaseStore) GetScansByCar(carID string, filter models.ScanFilter) ([]*models.ScanEvent, int64, error) {
	query := s.db.Model(&models.ScanEvent{}).Where("car_id = ?", carID)
	if filter.From != nil {
		query = query.Where("timestamp >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("timestamp <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var scans []*models.ScanEvent
	err := query.Order("timestamp DESC").
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&scans).Error
	if err != nil {
		return nil, 0, err
	}
	return scans, total, nil
}

// ===== QR operations =====

func (s *DatabaseStore) CreateQRCode(qr *models.QRCode) (*models.QRCode, error) {
	if err := s.db.Create(qr).Error; err != nil {
		return nil, err
	}
	return qr, nil
}

func (s *DatabaseStore) GetQRCode(id string) (*models.QRCode, error) {
	var qr models.QRCode
	err := s.db.Where("id = ?", id).First(&qr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQRNotFound
	}
	if err != nil {
		return nil, err
	}
	return &qr, nil
}

// ===== Payment operations =====

func (s *DatabaseStore) CreatePayment(payment *models.Payment) (*models.Payment, error) {
	if err := s.db.Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *DatabaseStore) GetPaymentByOrder(userID, orderID string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.Where("user_id = ? AND order_id = ?", userID, orderID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// CompletePayment marks the payment verified and upgrades the owner to
// premium in one transaction. The status guard in the UPDATE makes the
// pending → completed transition one-way even under concurrent verifies.
func (s *DatabaseStore) CompletePayment(paymentID string, verifiedAt, premiumExpiry time.Time) (*models.Payment, *models.User, error) {
	var payment models.Payment
	var user models.User

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", paymentID, models.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":      models.PaymentStatusCompleted,
				"verified_at": verifiedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPaymentCompleted
		}

		if err := tx.Where("id = ?", paymentID).First(&payment).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).Where("id = ?", payment.UserID).
			Updates(map[string]interface{}{
				"is_premium":          true,
				"plan":                models.PlanPremium,
				"premium_expiry_date": premiumExpiry,
			}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", payment.UserID).First(&user).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &payment, &user, nil
}
