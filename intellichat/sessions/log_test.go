package sessions

import (
	"fmt"
	"testing"

	"intellichat/intellichat/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogPreservesOrder(t *testing.T) {
	log := &Log{}
	const n = 50
	for i := 0; i < n; i++ {
		log.Append(types.NewUserMessage(fmt.Sprintf("message %d", i), nil))
	}

	all := log.All()
	require.Len(t, all, n)
	for i, msg := range all {
		assert.Equal(t, fmt.Sprintf("message %d", i), msg.Text())
	}
}

func TestLogNoDedup(t *testing.T) {
	log := &Log{}
	msg := types.NewUserMessage("same", nil)
	log.Append(msg)
	log.Append(msg)
	assert.Equal(t, 2, log.Len())
}

func TestLogAllReturnsCopy(t *testing.T) {
	log := &Log{}
	log.Append(types.NewUserMessage("first", nil))

	all := log.All()
	all[0] = types.NewModelMessage("clobbered")

	assert.Equal(t, "first", log.All()[0].Text())
}
