package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slotRequest struct {
	Date string `binding:"required,dateonly"`
	Slot string `binding:"required,timeslot"`
}

func TestRegisteredRules(t *testing.T) {
	require.NoError(t, Register())

	cases := []struct {
		name    string
		req     slotRequest
		wantErr bool
	}{
		{"valid", slotRequest{Date: "2026-03-03", Slot: "09:30"}, false},
		{"slash date", slotRequest{Date: "03/03/2026", Slot: "09:30"}, true},
		{"date with time", slotRequest{Date: "2026-03-03T09:30:00Z", Slot: "09:30"}, true},
		{"am pm slot", slotRequest{Date: "2026-03-03", Slot: "9:30am"}, true},
		{"out of range slot", slotRequest{Date: "2026-03-03", Slot: "25:00"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&tc.req)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
