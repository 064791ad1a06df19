package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gregory-j-wilson/Suplica/internal/app"
	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

func TestNumber(t *testing.T) {
	assert.Equal(t, "7", number(7))
	assert.Equal(t, "12.345", number(12345))
}

func TestBar(t *testing.T) {
	assert.Equal(t, "[--------------------]   0%", bar(0))
	assert.Equal(t, "[##########----------]  50%", bar(50))
	assert.Equal(t, "[####################] 100%", bar(100))
}

func TestDistance(t *testing.T) {
	assert.Equal(t, "—", distance(&app.MissionaryView{Missionary: &model.Missionary{}, Distance: -1}))
	assert.Equal(t, "2,5 km N", distance(&app.MissionaryView{Distance: 2500, Bearing: 0}))
	assert.Equal(t, "12.000 km SE", distance(&app.MissionaryView{Distance: 12_000_000, Bearing: 135}))
}

func TestCut(t *testing.T) {
	assert.Equal(t, "hola", cut("hola", 10))
	assert.Equal(t, "ho…", cut("hola", 3))
	assert.Equal(t, "oración", cut("oración", 0))
}

func TestCutOneLine(t *testing.T) {
	assert.Equal(t, "uno dos", cut("uno\n  dos\n", 20))
}
