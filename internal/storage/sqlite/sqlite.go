package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nowfit/chat/internal/config"
	"github.com/nowfit/chat/internal/storage"
)

// Store is a GORM-backed SQLite implementation of storage.Store.
type Store struct {
	db *gorm.DB
}

type userModel struct {
	ID        string `gorm:"primaryKey"`
	Username  string `gorm:"uniqueIndex"`
	Password  string
	Role      string `gorm:"index"`
	CoachID   string `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type messageModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Sender    string `gorm:"index:idx_pair"`
	Receiver  string `gorm:"index:idx_pair"`
	Content   string
	CreatedAt time.Time `gorm:"index"`
}

func (userModel) TableName() string    { return "users" }
func (messageModel) TableName() string { return "messages" }

// NewStore opens a SQLite database at the configured path.
func NewStore(cfg config.DatabaseConfig) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate applies schema updates.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&userModel{}, &messageModel{})
}

// CreateUser stores a new user record.
func (s *Store) CreateUser(ctx context.Context, user *storage.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	model := userModel{
		ID:        user.ID,
		Username:  user.Username,
		Password:  user.Password,
		Role:      user.Role,
		CoachID:   user.CoachID,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// GetUserByUsername retrieves a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*storage.User, error) {
	var model userModel
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return toUser(model), nil
}

// GetUserByID retrieves a user by primary key.
func (s *Store) GetUserByID(ctx context.Context, id string) (*storage.User, error) {
	var model userModel
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return toUser(model), nil
}

// ListClientsOfCoach returns every client assigned to the coach.
func (s *Store) ListClientsOfCoach(ctx context.Context, coachID string) ([]storage.User, error) {
	var models []userModel
	err := s.db.WithContext(ctx).
		Where("coach_id = ? AND role = ?", coachID, storage.RoleClient).
		Order("username ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	users := make([]storage.User, 0, len(models))
	for _, model := range models {
		users = append(users, *toUser(model))
	}
	return users, nil
}

// Assigned reports whether a and b form a coach/client pair in either order.
func (s *Store) Assigned(ctx context.Context, a, b string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&userModel{}).
		Where("(id = ? AND coach_id = ?) OR (id = ? AND coach_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveMessage appends a chat message and reports the stored ID and timestamp
// back through msg.
func (s *Store) SaveMessage(ctx context.Context, msg *storage.Message) error {
	if msg == nil {
		return errors.New("nil message")
	}
	model := messageModel{
		Sender:   msg.Sender,
		Receiver: msg.Receiver,
		Content:  msg.Content,
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	msg.ID = model.ID
	msg.CreatedAt = model.CreatedAt
	return nil
}

// ListMessagesBetween returns the conversation between a and b, both
// directions, oldest first.
func (s *Store) ListMessagesBetween(ctx context.Context, a, b string, limit int) ([]storage.Message, error) {
	query := s.db.WithContext(ctx).
		Where("(sender = ? AND receiver = ?) OR (sender = ? AND receiver = ?)", a, b, b, a).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var models []messageModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	messages := make([]storage.Message, 0, len(models))
	for _, model := range models {
		messages = append(messages, storage.Message{
			ID:        model.ID,
			Sender:    model.Sender,
			Receiver:  model.Receiver,
			Content:   model.Content,
			CreatedAt: model.CreatedAt,
		})
	}
	return messages, nil
}

func toUser(model userModel) *storage.User {
	return &storage.User{
		ID:        model.ID,
		Username:  model.Username,
		Password:  model.Password,
		Role:      model.Role,
		CoachID:   model.CoachID,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
