package qmid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
 * Device in the running state: synced, all CIDs in, autoconnect
 * acknowledged, NAS past its initial queries.
 */

func new_running_device() (*qmi_device, *test_modem) {
	var qmid, modem = new_test_device()

	qmid.ctl_state = CTL_SYNCED
	qmid.ctl_num_cids = 3
	qmid.nas_id = 1
	qmid.wds_id = 2
	qmid.dms_id = 3
	qmid.nas_state = NAS_SYS_INFO_QUERY
	qmid.wds_state = WDS_AUTOCONNECT_SET
	qmid.dms_state = DMS_GOT_CID
	qmid.pin_unlocked = true

	return qmid, modem
}

func sys_info_ind(t *testing.T, tlvs ...qmi_tlv) []byte {
	t.Helper()

	return build_reply(t, QMI_SERVICE_NAS, 1, 0, QMI_NAS_SYS_INFO_IND, tlvs...)
}

/*
 * Property: a service edge triggers exactly one connect; repeats do
 * not.
 */

func TestServiceGainTriggersConnectOnce(t *testing.T) {
	var qmid, modem = new_running_device()

	require.Equal(t, QMI_MSG_SUCCESS, deliver(t, qmid, sys_info_ind(t,
		sys_info_tlv(QMI_NAS_TLV_SI_LTE_SS, QMI_NAS_TLV_SI_SRV_STATUS_SRV))))

	assert.Equal(t, SERVICE_LTE, qmid.cur_service)
	assert.Equal(t, WDS_CONNECTING, qmid.wds_state)

	var messages = sent_messages(t, modem)
	require.Equal(t, [][2]uint16{{QMI_SERVICE_WDS, QMI_WDS_START_NETWORK_INTERFACE}}, messages)

	/* Same technology again: no edge, no second start. */
	require.Equal(t, QMI_MSG_SUCCESS, deliver(t, qmid, sys_info_ind(t,
		sys_info_tlv(QMI_NAS_TLV_SI_LTE_SS, QMI_NAS_TLV_SI_SRV_STATUS_SRV))))

	assert.Len(t, sent_messages(t, modem), 1)

	/* Technology change while service is held is autoconnect's
	 * business, not ours. */
	require.Equal(t, QMI_MSG_SUCCESS, deliver(t, qmid, sys_info_ind(t,
		sys_info_tlv(QMI_NAS_TLV_SI_WCDMA_SS, QMI_NAS_TLV_SI_SRV_STATUS_SRV))))

	assert.Equal(t, SERVICE_UMTS, qmid.cur_service)
	assert.Len(t, sent_messages(t, modem), 1)
}

/*
 * Scenario: service loss with a live session stops it, quoting the
 * stored handle.  No CID is released - the session may come back.
 */

func TestServiceLossStopsSession(t *testing.T) {
	var qmid, modem = new_running_device()

	qmid.cur_service = SERVICE_LTE
	qmid.wds_state = WDS_CONNECTED
	qmid.pkt_data_handle = 0x11223344

	require.Equal(t, QMI_MSG_SUCCESS, deliver(t, qmid, sys_info_ind(t,
		sys_info_tlv(QMI_NAS_TLV_SI_LTE_SS, 0x00),
		sys_info_tlv(QMI_NAS_TLV_SI_GSM_SS, 0x00))))

	assert.Equal(t, NO_SERVICE, qmid.cur_service)

	var frames = sent_frames(t, modem)
	require.Len(t, frames, 1)
	assert.EqualValues(t, QMI_WDS_STOP_NETWORK_INTERFACE, frames[0].message)

	var handle = find_tlv(frames[0].tlvs, QMI_WDS_TLV_PKT_DATA_HANDLE)
	assert.Equal(t, []byte{0x44, 0x33, 0x22, 0x11}, handle)
}

/*
 * When several technologies report SRV the first TLV in wire order
 * wins, as in the original.
 */

func TestSysInfoWireOrderFirst(t *testing.T) {
	var qmid, _ = new_running_device()

	require.Equal(t, QMI_MSG_SUCCESS, deliver(t, qmid, sys_info_ind(t,
		sys_info_tlv(QMI_NAS_TLV_SI_GSM_SS, QMI_NAS_TLV_SI_SRV_STATUS_SRV),
		sys_info_tlv(QMI_NAS_TLV_SI_LTE_SS, QMI_NAS_TLV_SI_SRV_STATUS_SRV))))

	assert.Equal(t, SERVICE_GSM, qmid.cur_service)
}

/*
 * The reply to the initial query leads with a result TLV which must
 * be skipped before the technology scan; a failure there is fatal.
 */

func TestSysInfoReply(t *testing.T) {
	var qmid, _ = new_running_device()

	require.Equal(t, QMI_MSG_SUCCESS, deliver(t, qmid,
		build_reply(t, QMI_SERVICE_NAS, 1, 3, QMI_NAS_GET_SYS_INFO, result_ok(),
			sys_info_tlv(QMI_NAS_TLV_SI_WCDMA_SS, QMI_NAS_TLV_SI_SRV_STATUS_SRV))))
	assert.Equal(t, SERVICE_UMTS, qmid.cur_service)

	var qmid2, _ = new_running_device()

	var status = deliver(t, qmid2,
		build_reply(t, QMI_SERVICE_NAS, 1, 3, QMI_NAS_GET_SYS_INFO,
			result_tlv(QMI_RESULT_FAILURE, 0)))
	assert.Equal(t, QMI_MSG_FAILURE, status)
}

/*
 * NAS state machine: each reply advances to the next request.
 */

func TestNasStateProgression(t *testing.T) {
	var qmid, modem = new_running_device()
	qmid.nas_state = NAS_GOT_CID

	qmi_nas_send(qmid)
	assert.Equal(t, NAS_SET_SYSTEM, qmid.nas_state)

	require.Equal(t, QMI_MSG_SUCCESS, deliver(t, qmid,
		build_reply(t, QMI_SERVICE_NAS, 1, 1, QMI_NAS_SET_SYSTEM_SELECTION_PREFERENCE, result_ok())))
	assert.Equal(t, NAS_IND_REQ, qmid.nas_state)

	require.Equal(t, QMI_MSG_SUCCESS, deliver(t, qmid,
		build_reply(t, QMI_SERVICE_NAS, 1, 2, QMI_NAS_INDICATION_REGISTER, result_ok())))
	assert.Equal(t, NAS_SYS_INFO_QUERY, qmid.nas_state)

	assert.Equal(t, [][2]uint16{
		{QMI_SERVICE_NAS, QMI_NAS_SET_SYSTEM_SELECTION_PREFERENCE},
		{QMI_SERVICE_NAS, QMI_NAS_INDICATION_REGISTER},
		{QMI_SERVICE_NAS, QMI_NAS_GET_SYS_INFO},
	}, sent_messages(t, modem))
}

func TestNasSetSystemFailure(t *testing.T) {
	var qmid, _ = new_running_device()
	qmid.nas_state = NAS_SET_SYSTEM

	var status = deliver(t, qmid,
		build_reply(t, QMI_SERVICE_NAS, 1, 1, QMI_NAS_SET_SYSTEM_SELECTION_PREFERENCE,
			result_tlv(QMI_RESULT_FAILURE, 0)))
	assert.Equal(t, QMI_MSG_FAILURE, status)
}
