package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOK_OmitsErrorFields(t *testing.T) {
	b, err := json.Marshal(OK(map[string]string{"version": "1.2.3"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"version":"1.2.3"}}`, string(b))
}
