package qmid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDmsSkippedWithoutPin(t *testing.T) {
	var qmid, modem = new_running_device()
	qmid.pin_unlocked = false

	dms_service{}.on_startup(qmid)

	assert.True(t, qmid.pin_unlocked)
	assert.Zero(t, modem.wr.Len(), "no DMS traffic without a PIN")
}

func TestDmsVerifyPinRequest(t *testing.T) {
	var qmid, modem = new_running_device()
	qmid.pin_code = "0000"
	qmid.pin_unlocked = false

	dms_service{}.on_startup(qmid)

	var frames = sent_frames(t, modem)
	require.Len(t, frames, 1)
	assert.EqualValues(t, QMI_SERVICE_DMS, frames[0].service)
	assert.EqualValues(t, 3, frames[0].client)
	assert.EqualValues(t, QMI_DMS_VERIFY_PIN, frames[0].message)
	assert.Equal(t, []byte{QMI_DMS_PIN_ID_PIN1, 4, '0', '0', '0', '0'},
		find_tlv(frames[0].tlvs, QMI_DMS_TLV_PIN))
}

/*
 * A wrong PIN is not fatal here; retry policy belongs to whoever
 * launched us.
 */

func TestDmsPinFailureLenient(t *testing.T) {
	var qmid, _ = new_running_device()
	qmid.pin_code = "9999"
	qmid.pin_unlocked = false
	qmid.dms_state = DMS_VERIFY_PIN

	var status = deliver(t, qmid,
		build_reply(t, QMI_SERVICE_DMS, 3, 1, QMI_DMS_VERIFY_PIN,
			result_tlv(QMI_RESULT_FAILURE, 0x000c)))

	assert.Equal(t, QMI_MSG_IGNORE, status)
	assert.False(t, qmid.pin_unlocked)
}

func TestDmsPinSuccess(t *testing.T) {
	var qmid, _ = new_running_device()
	qmid.pin_code = "1234"
	qmid.pin_unlocked = false
	qmid.dms_state = DMS_VERIFY_PIN

	require.Equal(t, QMI_MSG_SUCCESS, deliver(t, qmid,
		build_reply(t, QMI_SERVICE_DMS, 3, 1, QMI_DMS_VERIFY_PIN, result_ok())))

	assert.True(t, qmid.pin_unlocked)
}
