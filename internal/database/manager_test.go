package database

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

func prepare(t *testing.T) *DatabaseManager {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Info)})
	require.NoError(t, err)

	m := New(db)
	require.NoError(t, m.Migrate())

	return m
}

func addUser(t *testing.T, m *DatabaseManager, name, email string) *model.User {
	t.Helper()

	u, err := m.AddUser(&model.UserPostDTO{Name: name, Email: email, Password: "secreto"})
	require.NoError(t, err)

	return u
}

func TestUsers(t *testing.T) {
	m := prepare(t)

	u := addUser(t, m, "Ana", "Ana@Example.com")
	assert.NotZero(t, u.ID)
	assert.Equal(t, "ana@example.com", u.Email)

	_, err := m.AddUser(&model.UserPostDTO{Name: "Otra", Email: "ana@example.com", Password: "x"})
	require.ErrorIs(t, err, ErrEmailExists)

	_, err = m.AddUser(&model.UserPostDTO{Name: "Sin clave", Email: "b@example.com"})
	require.Error(t, err)

	assert.NotNil(t, m.CheckLogin("ANA@example.com", "secreto"))
	assert.Nil(t, m.CheckLogin("ana@example.com", "wrong"))
	assert.Nil(t, m.CheckLogin("nobody@example.com", "secreto"))

	assert.EqualValues(t, 1, m.UserQuery().Count())
}

func TestMissionsAndPrayers(t *testing.T) {
	m := prepare(t)
	u := addUser(t, m, "Ana", "ana@example.com")

	dto := model.NewMissionDraft()
	dto.Title = "Pozo de agua"
	dto.Description = "Comunidad sin agua"
	dto.UserID = u.ID

	mission, err := m.AddMission(dto)
	require.NoError(t, err)
	assert.Equal(t, "Ana", mission.UserName)

	private := *dto
	private.Title = "Privada"
	private.Public = false
	_, err = m.AddMission(&private)
	require.NoError(t, err)

	assert.Len(t, m.MissionQuery().Get(), 2)

	public := m.MissionQuery().Public().Get()
	require.Len(t, public, 1)
	assert.Equal(t, "Pozo de agua", public[0].Title)

	bad := *dto
	bad.Title = " "
	_, err = m.AddMission(&bad)
	require.Error(t, err)

	require.NoError(t, m.AddPrayer(&model.PrayPostDTO{MissionID: mission.ID, UserID: u.ID, Text: mission.PrayerText()}))
	require.NoError(t, m.AddPrayer(&model.PrayPostDTO{MissionID: mission.ID, UserID: u.ID}))
	require.ErrorIs(t, m.AddPrayer(&model.PrayPostDTO{MissionID: 999, UserID: u.ID}), ErrNotFound)

	got := m.MissionQuery().ID(mission.ID).One()
	require.NotNil(t, got)
	assert.EqualValues(t, 2, got.Prayers)

	require.NoError(t, m.MissionQuery().ID(mission.ID).Update(map[string]any{"answered": true}))

	stats := m.Stats(u.ID)
	assert.EqualValues(t, 2, stats.Prayers)
	assert.EqualValues(t, 2, stats.Missions)
	assert.EqualValues(t, 1, stats.Answered)

	assert.Equal(t, model.Stats{}, *m.Stats(12345))
}

func TestMessages(t *testing.T) {
	m := prepare(t)
	u := addUser(t, m, "Ana", "ana@example.com")

	dto := model.NewMissionDraft()
	dto.Title = "Visa"
	dto.Description = "Visa para el campo"
	dto.UserID = u.ID

	mission, err := m.AddMission(dto)
	require.NoError(t, err)

	first, err := m.AddMessage(&model.PrayerMessagePostDTO{MissionID: mission.ID, UserID: u.ID, Message: "Amén", ClientID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", first.UserName)
	assert.False(t, first.CreatedAt.IsZero())

	again, err := m.AddMessage(&model.PrayerMessagePostDTO{MissionID: mission.ID, UserID: u.ID, Message: "Amén", ClientID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	second, err := m.AddMessage(&model.PrayerMessagePostDTO{MissionID: mission.ID, UserID: u.ID, Message: "Gloria"})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	_, err = m.AddMessage(&model.PrayerMessagePostDTO{MissionID: mission.ID, UserID: u.ID, Message: "  "})
	require.Error(t, err)

	_, err = m.AddMessage(&model.PrayerMessagePostDTO{MissionID: 77, UserID: u.ID, Message: "x"})
	require.ErrorIs(t, err, ErrNotFound)

	all := m.MessageQuery().Mission(mission.ID).Get()
	require.Len(t, all, 2)
	assert.Equal(t, "Amén", all[0].Message)

	after := m.MessageQuery().Mission(mission.ID).After(first.ID).Get()
	require.Len(t, after, 1)
	assert.Equal(t, "Gloria", after[0].Message)

	assert.Empty(t, m.MessageQuery().Mission(mission.ID).After(second.ID).Get())
}

func TestCircles(t *testing.T) {
	m := prepare(t)
	ana := addUser(t, m, "Ana", "ana@example.com")
	luis := addUser(t, m, "Luis", "luis@example.com")

	c, err := m.CreateCircle(&model.CirclePostDTO{Name: "Jóvenes", UserID: ana.ID})
	require.NoError(t, err)
	assert.Len(t, c.InviteCode, 8)
	assert.EqualValues(t, 1, c.Members)

	_, err = m.CreateCircle(&model.CirclePostDTO{Name: "", UserID: ana.ID})
	require.Error(t, err)

	assert.Empty(t, m.CircleQuery().Member(luis.ID).Get())

	joined, err := m.JoinCircle(&model.CircleJoinDTO{InviteCode: " " + c.InviteCode + " ", UserID: luis.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, joined.Members)

	_, err = m.JoinCircle(&model.CircleJoinDTO{InviteCode: c.InviteCode, UserID: luis.ID})
	require.NoError(t, err)

	_, err = m.JoinCircle(&model.CircleJoinDTO{InviteCode: "NOPE", UserID: luis.ID})
	require.ErrorIs(t, err, ErrNotFound)

	list := m.CircleQuery().Member(luis.ID).Get()
	require.Len(t, list, 1)
	assert.Equal(t, "Jóvenes", list[0].Name)
	assert.EqualValues(t, 2, list[0].Members)
}

func TestMissionaries(t *testing.T) {
	m := prepare(t)

	require.NoError(t, m.AddMissionary(&model.Missionary{Name: "Pedro", Lat: -12.04, Lon: -77.04, Location: "Lima, Lima, Perú"}))
	require.NoError(t, m.AddMissionary(&model.Missionary{Name: "Ana"}))
	require.Error(t, m.AddMissionary(&model.Missionary{}))

	list := m.MissionaryQuery().Get()
	require.Len(t, list, 2)
	assert.Equal(t, "Ana", list[0].Name)
	assert.True(t, list[1].HasLocation())
}
