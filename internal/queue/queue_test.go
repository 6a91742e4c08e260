package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_LastAttempt(t *testing.T) {
	assert.False(t, Task{Attempt: 1, MaxAttempts: 3}.LastAttempt())
	assert.False(t, Task{Attempt: 2, MaxAttempts: 3}.LastAttempt())
	assert.True(t, Task{Attempt: 3, MaxAttempts: 3}.LastAttempt())
	assert.True(t, Task{Attempt: 1, MaxAttempts: 1}.LastAttempt())
}

func TestTask_Decode(t *testing.T) {
	type payload struct {
		SourceID int64 `json:"source_id"`
	}

	raw, err := json.Marshal(payload{SourceID: 42})
	require.NoError(t, err)

	task := Task{Type: "check_source", Payload: raw}

	var got payload
	require.NoError(t, task.Decode(&got))
	assert.Equal(t, int64(42), got.SourceID)

	task.Payload = []byte("{broken")
	err = task.Decode(&got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check_source")
}

func TestPermanent(t *testing.T) {
	base := errors.New("quota exceeded")

	wrapped := Permanent(base)
	assert.True(t, IsPermanent(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, base.Error(), wrapped.Error())

	assert.False(t, IsPermanent(base))
	assert.Nil(t, Permanent(nil))

	// Wrapping survives further fmt.Errorf chains.
	chained := fmt.Errorf("handler: %w", wrapped)
	assert.True(t, IsPermanent(chained))
}
