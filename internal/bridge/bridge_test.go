package bridge_test

import (
	"strings"
	"testing"

	"siteshell/internal/bridge"
	"siteshell/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		payload string
		want    bridge.Command
		wantErr error
	}{
		{`{"command":"print"}`, bridge.CommandPrint, nil},
		{`{"command":"logout"}`, bridge.CommandLogout, nil},
		{`{"command":"refresh"}`, bridge.CommandRefresh, nil},
		{`{"command":"back","extra":1}`, bridge.CommandBack, nil},
		{`{"command":"exec"}`, "", domain.ErrUnknownCommand},
		{`{"command":1}`, "", domain.ErrBadPayload},
		{`{}`, "", domain.ErrBadPayload},
		{`print`, "", domain.ErrBadPayload},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			got, err := bridge.Decode(tt.payload)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageScript(t *testing.T) {
	s := bridge.PageScript("Android", bridge.BindingName)

	assert.Contains(t, s, `window["Android"]`)
	assert.Contains(t, s, `window["`+bridge.BindingName+`"]`)
	for _, cmd := range []string{"'print'", "'logout'", "'refresh'", "'back'"} {
		assert.True(t, strings.Contains(s, cmd), "脚本缺少命令 %s", cmd)
	}
}

func TestRefreshIndicatorScript(t *testing.T) {
	assert.Contains(t, bridge.RefreshIndicatorScript(true), "appendChild")
	assert.Contains(t, bridge.RefreshIndicatorScript(false), "remove()")
}
