package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefreshCommandParse(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/home/a1b2c3d4/refresh"
	r := refreshCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(matches[0][1], "a1b2c3d4", "home hash extract")
}

func TestRefreshCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/home/a1b2c3d4/state"
	r := refreshCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(len(matches), 0, "no matches")
}
