package requests

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

func paramContext(name, value string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: name, Value: value}}
	return c
}

func TestGetIDParam(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  uint
		valid bool
	}{
		{"plain", "42", 42, true},
		{"largest bigint", "9223372036854775807", 9223372036854775807, true},
		{"above bigint", "9223372036854775808", 0, false},
		{"max uint64", "18446744073709551615", 0, false},
		{"zero", "0", 0, false},
		{"negative", "-1", 0, false},
		{"text", "abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := GetIDParam(paramContext("conversation_id", tt.raw), "conversation_id")
			if !tt.valid {
				require.Error(t, err)
				assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestBodyIDsRejectValuesAboveBigint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	bind := func(body string, target any) error {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
		c.Request.Header.Set("Content-Type", "application/json")
		return c.ShouldBindJSON(target)
	}

	assert.NoError(t, bind(`{"recipient_id": 9223372036854775807, "content": "hi"}`, &DirectMessageRequest{}))
	assert.Error(t, bind(`{"recipient_id": 9223372036854775808, "content": "hi"}`, &DirectMessageRequest{}))
	assert.Error(t, bind(`{"message_ids": [1, 18446744073709551615]}`, &MarkMessagesReadRequest{}))
	assert.Error(t, bind(`{"blocked_user_id": 9223372036854775808}`, &BlockUserRequest{}))
	assert.NoError(t, bind(`{"all": true}`, &MarkNotificationsReadRequest{}))
}
