package database

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrEmailExists = errors.New("email already registered")
)

type DatabaseManager struct {
	db     *gorm.DB
	logger *slog.Logger
}

func New(db *gorm.DB) *DatabaseManager {
	m := &DatabaseManager{
		db:     db,
		logger: slog.With("logger", "dbm"),
	}

	return m
}

func (mm *DatabaseManager) Migrate() error {
	return mm.db.AutoMigrate(
		&model.User{},
		&model.Mission{},
		&model.Prayer{},
		&model.PrayerMessage{},
		&model.Circle{},
		&model.Missionary{},
	)
}

func (mm *DatabaseManager) Create(s any) error {
	if mm == nil || mm.db == nil {
		return nil
	}

	err := mm.db.Create(s).Error

	if err != nil {
		mm.logger.Error("error create object", slog.Any("error", err))
	}

	return err
}

func (mm *DatabaseManager) Save(s any) error {
	if mm == nil || mm.db == nil {
		return nil
	}

	err := mm.db.Save(s).Error

	if err != nil {
		mm.logger.Error("error saving object", slog.Any("error", err))
	}

	return err
}

func (mm *DatabaseManager) UserQuery() *UserQuery {
	return NewUserQuery(mm.db)
}

func (mm *DatabaseManager) MissionQuery() *MissionQuery {
	return NewMissionQuery(mm.db)
}

func (mm *DatabaseManager) MessageQuery() *MessageQuery {
	return NewMessageQuery(mm.db)
}

func (mm *DatabaseManager) CircleQuery() *CircleQuery {
	return NewCircleQuery(mm.db)
}

func (mm *DatabaseManager) MissionaryQuery() *MissionaryQuery {
	return NewMissionaryQuery(mm.db)
}

// AddUser stores a new user with a hashed password.
func (mm *DatabaseManager) AddUser(dto *model.UserPostDTO) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(dto.Email))

	if email == "" || dto.Password == "" || strings.TrimSpace(dto.Name) == "" {
		return nil, fmt.Errorf("nombre, email and password are required")
	}

	if mm.UserQuery().Email(email).Count() > 0 {
		return nil, ErrEmailExists
	}

	u := &model.User{Name: strings.TrimSpace(dto.Name), Email: email, Bio: dto.Bio}

	if err := u.SetPassword(dto.Password); err != nil {
		return nil, err
	}

	if err := mm.Create(u); err != nil {
		return nil, err
	}

	return u, nil
}

// CheckLogin returns the user when email and password match.
func (mm *DatabaseManager) CheckLogin(email, password string) *model.User {
	if strings.TrimSpace(email) == "" {
		return nil
	}

	u := mm.UserQuery().Email(email).One()

	if u == nil || !u.CheckPassword(password) {
		return nil
	}

	return u
}

func (mm *DatabaseManager) AddMission(dto *model.MissionPostDTO) (*model.Mission, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u := mm.UserQuery().ID(dto.UserID).One()
	if u == nil {
		return nil, fmt.Errorf("user %d: %w", dto.UserID, ErrNotFound)
	}

	m := &model.Mission{
		Title:       strings.TrimSpace(dto.Title),
		Description: dto.Description,
		Category:    dto.Category,
		Urgency:     dto.Urgency,
		UserID:      u.ID,
		UserName:    u.Name,
		Public:      model.Flag(dto.Public),
		StartDate:   dto.StartDate,
	}

	if err := mm.Create(m); err != nil {
		return nil, err
	}

	return m, nil
}

// AddPrayer records a prayer and bumps the mission counter in one transaction.
func (mm *DatabaseManager) AddPrayer(dto *model.PrayPostDTO) error {
	return mm.db.Transaction(func(tx *gorm.DB) error {
		err := NewMissionQuery(tx).ID(dto.MissionID).
			Update(map[string]any{"prayers": gorm.Expr("prayers + 1")})

		if errors.Is(err, errUpdate) {
			return fmt.Errorf("mission %d: %w", dto.MissionID, ErrNotFound)
		}

		if err != nil {
			return err
		}

		return tx.Create(&model.Prayer{MissionID: dto.MissionID, UserID: dto.UserID, Text: dto.Text}).Error
	})
}

// AddMessage appends a message to a mission's prayer room. A repeated
// client id returns the stored message instead of a duplicate.
func (mm *DatabaseManager) AddMessage(dto *model.PrayerMessagePostDTO) (*model.PrayerMessage, error) {
	if strings.TrimSpace(dto.Message) == "" {
		return nil, fmt.Errorf("mensaje is required")
	}

	if dto.ClientID != "" {
		if m := mm.MessageQuery().Mission(dto.MissionID).ClientID(dto.ClientID).One(); m != nil {
			return m, nil
		}
	}

	if mm.MissionQuery().ID(dto.MissionID).Count() == 0 {
		return nil, fmt.Errorf("mission %d: %w", dto.MissionID, ErrNotFound)
	}

	msg := &model.PrayerMessage{
		MissionID: dto.MissionID,
		UserID:    dto.UserID,
		Message:   dto.Message,
		ClientID:  dto.ClientID,
		CreatedAt: model.Now(),
	}

	if u := mm.UserQuery().ID(dto.UserID).One(); u != nil {
		msg.UserName = u.Name
	}

	if err := mm.Create(msg); err != nil {
		return nil, err
	}

	return msg, nil
}

func (mm *DatabaseManager) CreateCircle(dto *model.CirclePostDTO) (*model.Circle, error) {
	if strings.TrimSpace(dto.Name) == "" {
		return nil, fmt.Errorf("nombre is required")
	}

	u := mm.UserQuery().ID(dto.UserID).One()
	if u == nil {
		return nil, fmt.Errorf("user %d: %w", dto.UserID, ErrNotFound)
	}

	c := &model.Circle{
		Name:        strings.TrimSpace(dto.Name),
		Description: dto.Description,
		InviteCode:  model.NewInviteCode(),
		OwnerID:     u.ID,
		Users:       []*model.User{u},
	}

	if err := mm.Create(c); err != nil {
		return nil, err
	}

	c.Members = 1

	return c, nil
}

// JoinCircle adds the user to the circle with the given invite code.
// Joining twice is not an error.
func (mm *DatabaseManager) JoinCircle(dto *model.CircleJoinDTO) (*model.Circle, error) {
	c := mm.CircleQuery().Code(dto.InviteCode).One()
	if c == nil {
		return nil, fmt.Errorf("circle %q: %w", dto.InviteCode, ErrNotFound)
	}

	u := mm.UserQuery().ID(dto.UserID).One()
	if u == nil {
		return nil, fmt.Errorf("user %d: %w", dto.UserID, ErrNotFound)
	}

	if err := mm.db.Model(c).Association("Users").Append(u); err != nil {
		return nil, err
	}

	return mm.CircleQuery().ID(c.ID).One(), nil
}

// Stats counts a user's prayers, missions and answered missions.
func (mm *DatabaseManager) Stats(userID model.ID) *model.Stats {
	var prayers int64

	mm.db.Model(&model.Prayer{}).Where("user_id = ?", userID).Count(&prayers)

	return &model.Stats{
		Prayers:  model.Count(prayers),
		Missions: model.Count(mm.MissionQuery().User(userID).Count()),
		Answered: model.Count(mm.MissionQuery().User(userID).Answered().Count()),
	}
}

func (mm *DatabaseManager) AddMissionary(m *model.Missionary) error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("nombre is required")
	}

	return mm.Create(m)
}
